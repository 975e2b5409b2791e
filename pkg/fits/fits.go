// Package fits reads and writes the simple subset of the FITS format used
// by radio continuum imaging pipelines: a primary HDU holding an N-D float
// image and the header cards describing its pixel scale and restoring beam.
package fits

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"cleanmask/internal/models"
)

const (
	recordLength = 80
	blockRecords = 36
	blockLength  = recordLength * blockRecords
)

// Card is a single FITS header keyword/value pair.
type Card struct {
	Keyword string
	Value   string
}

// Header holds parsed FITS header cards in file order.
type Header struct {
	cards []Card
	index map[string]int
}

// NewHeader creates an empty header.
func NewHeader() *Header {
	return &Header{index: make(map[string]int)}
}

// Get returns the raw value string for a keyword, if present.
func (h *Header) Get(key string) (string, bool) {
	i, ok := h.index[strings.ToUpper(key)]
	if !ok {
		return "", false
	}
	return h.cards[i].Value, true
}

// GetFloat returns a keyword value parsed as a float64.
func (h *Header) GetFloat(key string) (float64, bool) {
	v, ok := h.Get(key)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Set stores or replaces a keyword value.
func (h *Header) Set(key, value string) {
	key = strings.ToUpper(key)
	if i, ok := h.index[key]; ok {
		h.cards[i].Value = value
		return
	}
	h.index[key] = len(h.cards)
	h.cards = append(h.cards, Card{Keyword: key, Value: value})
}

// SetFloat stores a keyword with a float value.
func (h *Header) SetFloat(key string, value float64) {
	h.Set(key, strconv.FormatFloat(value, 'G', -1, 64))
}

// PixelScales returns the absolute pixel scales along the two spatial axes
// in degrees per pixel (CDELT1 and CDELT2).
func (h *Header) PixelScales() (cdelt1, cdelt2 float64, ok bool) {
	c1, ok1 := h.GetFloat("CDELT1")
	c2, ok2 := h.GetFloat("CDELT2")
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return math.Abs(c1), math.Abs(c2), true
}

// Beam returns the restoring beam described by the BMAJ/BMIN/BPA cards.
// The second return value is false if any of the three cards is missing.
func (h *Header) Beam() (models.Beam, bool) {
	maj, ok1 := h.GetFloat("BMAJ")
	min, ok2 := h.GetFloat("BMIN")
	pa, ok3 := h.GetFloat("BPA")
	if !ok1 || !ok2 || !ok3 {
		return models.Beam{}, false
	}
	return models.Beam{Major: maj, Minor: min, PositionAngle: pa}, true
}

// Image is a FITS primary HDU: the pixel grid plus its header.
type Image struct {
	Pixels *models.Image
	Header *Header
}

// Read loads the primary HDU of a FITS file into a float64 pixel grid.
func Read(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open FITS file: %w", err)
	}
	defer f.Close()
	return readFrom(f)
}

func readFrom(r io.Reader) (*Image, error) {
	header := NewHeader()
	bitpix := 0
	naxis := 0
	axes := make([]int, 0, 4)
	bzero := 0.0
	bscale := 1.0

	recordBuf := make([]byte, recordLength)
	headerDone := false
	for !headerDone {
		for i := 0; i < blockRecords; i++ {
			if _, err := io.ReadFull(r, recordBuf); err != nil {
				return nil, fmt.Errorf("failed to read FITS header record: %w", err)
			}
			record := string(recordBuf)
			keyword := strings.TrimSpace(record[:8])

			if keyword == "END" {
				headerDone = true
				if remaining := blockRecords - 1 - i; remaining > 0 {
					skip := make([]byte, remaining*recordLength)
					if _, err := io.ReadFull(r, skip); err != nil {
						return nil, fmt.Errorf("failed to skip FITS header padding: %w", err)
					}
				}
				break
			}

			if len(record) > 10 && record[8] == '=' {
				rawValue := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
				value := parseValue(rawValue)
				if keyword != "" && value != "" {
					header.Set(keyword, value)
				}

				switch {
				case keyword == "BITPIX":
					bitpix, _ = strconv.Atoi(rawValue)
				case keyword == "NAXIS":
					naxis, _ = strconv.Atoi(rawValue)
				case strings.HasPrefix(keyword, "NAXIS"):
					n, _ := strconv.Atoi(rawValue)
					axes = append(axes, n)
				case keyword == "BZERO":
					bzero, _ = strconv.ParseFloat(rawValue, 64)
				case keyword == "BSCALE":
					bscale, _ = strconv.ParseFloat(rawValue, 64)
				}
			}
		}
	}

	if naxis < 2 || len(axes) < 2 || axes[0] == 0 || axes[1] == 0 {
		return nil, fmt.Errorf("invalid FITS image: NAXIS=%d axes=%v", naxis, axes)
	}

	// FITS stores NAXIS1 fastest, so the row-major shape is the axis list
	// reversed: leading (plane) axes first, then height, then width.
	shape := make([]int, len(axes))
	for i, n := range axes {
		shape[len(axes)-1-i] = n
	}

	img := models.NewImage(shape...)
	numPixels := len(img.Data)

	switch bitpix {
	case 8:
		raw := make([]byte, numPixels)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read 8-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			img.Data[i] = float64(raw[i])*bscale + bzero
		}
	case 16:
		raw := make([]byte, numPixels*2)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read 16-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			v := int16(binary.BigEndian.Uint16(raw[i*2:]))
			img.Data[i] = float64(v)*bscale + bzero
		}
	case 32:
		raw := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read 32-bit pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			v := int32(binary.BigEndian.Uint32(raw[i*4:]))
			img.Data[i] = float64(v)*bscale + bzero
		}
	case -32:
		raw := make([]byte, numPixels*4)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read 32-bit float pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			v := math.Float32frombits(binary.BigEndian.Uint32(raw[i*4:]))
			img.Data[i] = float64(v)*bscale + bzero
		}
	case -64:
		raw := make([]byte, numPixels*8)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, fmt.Errorf("failed to read 64-bit float pixel data: %w", err)
		}
		for i := 0; i < numPixels; i++ {
			v := math.Float64frombits(binary.BigEndian.Uint64(raw[i*8:]))
			img.Data[i] = v*bscale + bzero
		}
	default:
		return nil, fmt.Errorf("unsupported BITPIX: %d", bitpix)
	}

	return &Image{Pixels: img, Header: header}, nil
}

func parseValue(rawValue string) string {
	if rawValue == "" {
		return ""
	}
	if strings.HasPrefix(rawValue, "'") {
		if endQuote := strings.LastIndex(rawValue, "'"); endQuote > 0 {
			return strings.TrimRight(rawValue[1:endQuote], " ")
		}
		return strings.Trim(rawValue, "' ")
	}
	return rawValue
}

// structural keywords are regenerated on write and never copied through.
func isStructural(keyword string) bool {
	switch keyword {
	case "SIMPLE", "BITPIX", "NAXIS", "END", "BZERO", "BSCALE", "EXTEND":
		return true
	}
	return strings.HasPrefix(keyword, "NAXIS")
}

func writeHeader(w io.Writer, bitpix int, shape []int, header *Header) error {
	var records []string
	records = append(records, fmt.Sprintf("%-8s= %20s", "SIMPLE", "T"))
	records = append(records, fmt.Sprintf("%-8s= %20d", "BITPIX", bitpix))
	records = append(records, fmt.Sprintf("%-8s= %20d", "NAXIS", len(shape)))
	for i := 0; i < len(shape); i++ {
		// NAXIS1 is the innermost (fastest varying) axis.
		records = append(records, fmt.Sprintf("NAXIS%-3d= %20d", i+1, shape[len(shape)-1-i]))
	}
	if header != nil {
		for _, card := range header.cards {
			if isStructural(card.Keyword) {
				continue
			}
			value := card.Value
			if _, err := strconv.ParseFloat(value, 64); err != nil && value != "T" && value != "F" {
				value = fmt.Sprintf("'%s'", value)
			}
			records = append(records, fmt.Sprintf("%-8s= %20s", card.Keyword, value))
		}
	}
	records = append(records, "END")

	buf := make([]byte, 0, blockLength)
	for _, rec := range records {
		padded := fmt.Sprintf("%-80s", rec)
		buf = append(buf, padded[:recordLength]...)
	}
	for len(buf)%blockLength != 0 {
		buf = append(buf, []byte(fmt.Sprintf("%-80s", ""))...)
	}
	_, err := w.Write(buf)
	return err
}

func padToBlock(w io.Writer, written int) error {
	if rem := written % blockLength; rem != 0 {
		_, err := w.Write(make([]byte, blockLength-rem))
		return err
	}
	return nil
}

// WriteFloat writes a float64 pixel grid as a BITPIX=-64 primary HDU,
// carrying over the non-structural cards of the supplied header.
func WriteFloat(path string, img *models.Image, header *Header) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create FITS file: %w", err)
	}
	defer f.Close()

	if err := writeHeader(f, -64, img.Shape, header); err != nil {
		return fmt.Errorf("failed to write FITS header: %w", err)
	}

	buf := make([]byte, len(img.Data)*8)
	for i, v := range img.Data {
		binary.BigEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("failed to write pixel data: %w", err)
	}
	return padToBlock(f, len(buf))
}

// WriteMask writes an integer mask as a BITPIX=32 primary HDU, following the
// downstream convention that zero means excluded and non-zero means
// included in the clean region.
func WriteMask(path string, mask []int32, shape []int, header *Header) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create FITS file: %w", err)
	}
	defer f.Close()

	if err := writeHeader(f, 32, shape, header); err != nil {
		return fmt.Errorf("failed to write FITS header: %w", err)
	}

	buf := make([]byte, len(mask)*4)
	for i, v := range mask {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(v))
	}
	if _, err := f.Write(buf); err != nil {
		return fmt.Errorf("failed to write mask data: %w", err)
	}
	return padToBlock(f, len(buf))
}
