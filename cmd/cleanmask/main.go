package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/stat"

	"cleanmask/pkg/config"
	"cleanmask/pkg/fits"
	"cleanmask/pkg/masking"
	"cleanmask/pkg/visualization"
)

func main() {
	// Parse command line arguments
	imagePath := flag.String("image", "", "Path to the input FITS image")
	rmsPath := flag.String("rms", "", "Path to the RMS FITS image of the input image")
	bkgPath := flag.String("bkg", "", "Path to the background FITS image of the input image")
	configPath := flag.String("config", "", "Optional YAML configuration file")
	writeConfig := flag.String("write-config", "", "Write the default configuration to this path and exit")

	saveSignal := flag.Bool("save-signal", false, "Save the intermediate signal map next to the mask")
	previewDir := flag.String("preview-dir", "", "Directory to render PNG previews of the outputs into")
	round := flag.Int("round", 0, "Self-calibration round this mask is being built for")

	baseSNRClip := flag.Float64("base-snr-clip", 4.0, "Clipping level used when flood filling is disabled")
	floodFill := flag.Bool("flood-fill", true, "Construct the mask by seeded flood filling")
	seedClip := flag.Float64("flood-fill-positive-seed-clip", 4.5, "Clipping level that seeds islands")
	floodClip := flag.Float64("flood-fill-positive-flood-clip", 1.5, "Clipping level islands are grown down to")
	useMBC := flag.Bool("flood-fill-use-mbc", false, "Seed and flood with the minimum absolute clip operator")
	mbcBoxSize := flag.Int("flood-fill-use-mbc-box-size", 75, "Rolling box size for the minimum absolute clip")
	suppressArtefacts := flag.Bool("suppress-artefacts", false, "Suppress islands around significant negative emission")
	growLowSNR := flag.Bool("grow-low-snr-island", false, "Recover large islands of low SNR emission")
	beamErode := flag.Bool("beam-shape-erode", false, "Erode the mask using the restoring beam shape")
	beamErodeResponse := flag.Float64("beam-shape-erode-minimum-response", 0.6, "Beam response level the erosion structure is cut at")
	flag.Parse()

	if *writeConfig != "" {
		if err := config.CreateDefaultConfigFile(*writeConfig); err != nil {
			log.Fatalf("Failed to write configuration: %v", err)
		}
		fmt.Printf("Wrote default configuration to %s\n", *writeConfig)
		return
	}

	if *imagePath == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Command line flags override the configuration file, but only the
	// flags that were actually supplied.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "base-snr-clip":
			cfg.Masking.BaseSNRClip = *baseSNRClip
		case "flood-fill":
			cfg.Masking.FloodFill = *floodFill
		case "flood-fill-positive-seed-clip":
			cfg.Masking.FloodFillPositiveSeedClip = *seedClip
		case "flood-fill-positive-flood-clip":
			cfg.Masking.FloodFillPositiveFloodClip = *floodClip
		case "flood-fill-use-mbc":
			cfg.Masking.FloodFillUseMBC = *useMBC
		case "flood-fill-use-mbc-box-size":
			cfg.Masking.FloodFillUseMBCBoxSize = *mbcBoxSize
		case "suppress-artefacts":
			cfg.Masking.SuppressArtefacts = *suppressArtefacts
		case "grow-low-snr-island":
			cfg.Masking.GrowLowSNRIsland = *growLowSNR
		case "beam-shape-erode":
			cfg.Masking.BeamShapeErode = *beamErode
		case "beam-shape-erode-minimum-response":
			cfg.Masking.BeamShapeErodeMinimumResponse = *beamErodeResponse
		case "save-signal":
			cfg.Output.SaveSignal = *saveSignal
		case "preview-dir":
			cfg.Output.PreviewDir = *previewDir
		}
	})

	rule, err := masking.ParseRoundRule(cfg.Rounds.MaskRounds)
	if err != nil {
		log.Fatalf("Invalid mask round rule: %v", err)
	}
	if !masking.AppliesToRound(*round, rule, cfg.Rounds.AllowBeamMasks) {
		fmt.Printf("Round %d is excluded by the mask round rule %q, nothing to do\n", *round, rule)
		return
	}

	fmt.Println("================================")
	fmt.Println("CLEANMASK - adaptive clean mask synthesis for radio images")
	fmt.Println("================================")

	names, err := masking.CreateSNRMaskFromFITS(*imagePath, *rmsPath, *bkgPath, cfg.Masking, cfg.Output.SaveSignal)
	if err != nil {
		log.Fatalf("Mask synthesis failed: %v", err)
	}

	fmt.Printf("\nMask written to: %s\n", names.MaskFITS)
	if names.SignalFITS != "" {
		fmt.Printf("Signal map written to: %s\n", names.SignalFITS)
	}

	printSummary(names)

	if cfg.Output.PreviewDir != "" {
		if err := renderPreviews(names, cfg.Output.PreviewDir); err != nil {
			log.Printf("Warning: failed to render previews: %v", err)
		}
	}
}

// printSummary reports how much of the image ended up inside the clean
// region, and basic statistics of the signal map when one was produced.
func printSummary(names masking.MaskNames) {
	mask, err := fits.Read(names.MaskFITS)
	if err != nil {
		log.Printf("Warning: failed to re-read mask for the summary: %v", err)
		return
	}

	set := 0
	for _, v := range mask.Pixels.Data {
		if v != 0 {
			set++
		}
	}
	total := len(mask.Pixels.Data)
	fmt.Printf("\nMask summary:\n")
	fmt.Printf("=============\n")
	fmt.Printf("Pixels in clean region: %d of %d (%.3f%%)\n", set, total, 100.0*float64(set)/float64(total))

	if names.SignalFITS != "" {
		signal, err := fits.Read(names.SignalFITS)
		if err != nil {
			log.Printf("Warning: failed to re-read signal map for the summary: %v", err)
			return
		}
		mean, std := stat.MeanStdDev(signal.Pixels.Data, nil)
		fmt.Printf("Signal map mean: %.4f sigma\n", mean)
		fmt.Printf("Signal map standard deviation: %.4f sigma\n", std)
	}
}

// renderPreviews writes PNG quick-looks of the mask (and signal map when
// present) into the preview directory.
func renderPreviews(names masking.MaskNames, previewDir string) error {
	if err := os.MkdirAll(previewDir, 0755); err != nil {
		return err
	}

	mask, err := fits.Read(names.MaskFITS)
	if err != nil {
		return err
	}
	width, height := mask.Pixels.Width(), mask.Pixels.Height()

	plane := mask.Pixels.Plane(0)
	maskData := make([]int32, len(plane))
	set := 0
	for i, v := range plane {
		if v != 0 {
			maskData[i] = 1
			set++
		}
	}
	caption := fmt.Sprintf("%s  %d pixels masked", filepath.Base(names.MaskFITS), set)
	img := visualization.RenderMask(maskData, width, height, caption)
	if err := visualization.SavePNG(img, filepath.Join(previewDir, "mask.png")); err != nil {
		return err
	}

	if names.SignalFITS != "" {
		signal, err := fits.Read(names.SignalFITS)
		if err != nil {
			return err
		}
		caption := filepath.Base(names.SignalFITS)
		img := visualization.RenderPlane(signal.Pixels.Plane(0), width, height, caption)
		if err := visualization.SavePNG(img, filepath.Join(previewDir, "signal.png")); err != nil {
			return err
		}
	}

	return nil
}
