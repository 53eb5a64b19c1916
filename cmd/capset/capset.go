package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/playsight/capset/pkg/annotation"
	"github.com/playsight/capset/pkg/caption"
	"github.com/playsight/capset/pkg/catalog"
	"github.com/playsight/capset/pkg/config"
	"github.com/playsight/capset/pkg/dataset"
	"github.com/playsight/capset/pkg/preview"
	"github.com/playsight/capset/pkg/vocab"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg"}

func main() {
	parser := argparse.NewParser("capset", "Prepare structured caption datasets for vision-language model fine-tuning")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Project config file", Default: "capset.json"})

	buildCmd := parser.NewCommand("build", "Render captions and export train/validation/test archives")
	buildOut := buildCmd.String("o", "out", &argparse.Options{Help: "Output directory for split archives", Default: "."})
	buildTokenizer := buildCmd.String("t", "tokenizer", &argparse.Options{Help: "Extended tokenizer config JSON, stamps the manifest with its version (default from capset.json tokenizerPath)"})

	vocabCmd := parser.NewCommand("vocab", "Extend a tokenizer config with the caption tokens and task")
	vocabIn := vocabCmd.String("t", "tokenizer", &argparse.Options{Help: "Tokenizer config JSON of the pretrained model", Required: true})
	vocabOut := vocabCmd.String("o", "out", &argparse.Options{Help: "Output tokenizer config JSON", Required: true})

	showCmd := parser.NewCommand("show", "Print the caption of one sample")
	showSplit := showCmd.String("s", "split", &argparse.Options{Help: "Dataset split (train, validation, test)", Default: "train"})
	showIndex := showCmd.Int("i", "index", &argparse.Options{Help: "Sample index", Default: 0})

	statsCmd := parser.NewCommand("stats", "Rebuild the catalog and print corpus statistics")
	statsTop := statsCmd.Int("n", "top", &argparse.Options{Help: "Also list the N highest ranked images", Default: 0})

	checkCmd := parser.NewCommand("check", "Scan annotations for malformed files and overlapping boxes")
	checkIOU := checkCmd.Float("", "iou", &argparse.Options{Help: "Box overlap threshold for flagging duplicates", Default: 0.8})

	previewCmd := parser.NewCommand("preview", "Draw one annotation onto its image")
	previewBase := previewCmd.String("b", "base", &argparse.Options{Help: "Base filename of the image/annotation pair", Required: true})
	previewOut := previewCmd.String("o", "out", &argparse.Options{Help: "Output PNG", Required: true})

	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	switch {
	case buildCmd.Happened():
		err = runBuild(logger, cfg, *buildOut, *buildTokenizer)
	case vocabCmd.Happened():
		err = runVocab(logger, cfg, *vocabIn, *vocabOut)
	case showCmd.Happened():
		err = runShow(logger, cfg, dataset.Split(*showSplit), *showIndex)
	case statsCmd.Happened():
		err = runStats(logger, cfg, *statsTop)
	case checkCmd.Happened():
		err = runCheck(logger, cfg, *checkIOU)
	case previewCmd.Happened():
		err = runPreview(logger, cfg, *previewBase, *previewOut)
	default:
		fmt.Print(parser.Usage(nil))
		os.Exit(1)
	}
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func runBuild(logger logs.Log, cfg *config.Config, outDir, tokenizerFile string) error {
	if err := os.MkdirAll(outDir, 0770); err != nil {
		return err
	}
	if tokenizerFile == "" {
		tokenizerFile = cfg.TokenizerPath
	}
	vocabVersion := 0
	if tokenizerFile != "" {
		tk, err := vocab.LoadConfig(tokenizerFile)
		if err != nil {
			return err
		}
		vocabVersion = tk.Version
		if _, err := tk.TaskPrompt(cfg.TaskName); err != nil {
			logger.Warnf("Task %v is not registered in %v; run 'capset vocab' first", cfg.TaskName, tokenizerFile)
		}
	}
	for _, split := range []dataset.Split{dataset.Train, dataset.Validation, dataset.Test} {
		d, err := dataset.New(logger, cfg.DatasetOptions(split))
		if err != nil {
			return err
		}
		outFile := filepath.Join(outDir, string(split)+".zip")
		f, err := os.Create(outFile)
		if err != nil {
			return err
		}
		err = d.Export(f, dataset.Manifest{
			CaptionKeys:  cfg.CaptionKeys,
			Tokenize:     !cfg.PlainText,
			TaskName:     cfg.TaskName,
			TaskPrompt:   caption.FormatSentence(cfg.TaskPrompt, true),
			VocabVersion: vocabVersion,
		})
		f.Close()
		if err != nil {
			return fmt.Errorf("Failed to export %v: %w", outFile, err)
		}
		logger.Infof("Wrote %v (%v samples)", outFile, d.Len())
	}
	return nil
}

func runVocab(logger logs.Log, cfg *config.Config, inFile, outFile string) error {
	base, err := vocab.LoadConfig(inFile)
	if err != nil {
		return err
	}
	prompt := caption.FormatSentence(cfg.TaskPrompt, true)
	next, newIDs, err := base.Extend(vocab.ExtendOptions{
		Tokens: vocab.CaptionTokens(),
		Tasks:  map[string]string{cfg.TaskName: prompt},
	})
	if err != nil {
		return err
	}
	if err := next.Save(outFile); err != nil {
		return err
	}
	logger.Infof("Registered %v new tokens, vocabulary size %v -> %v (version %v)", len(newIDs), base.Size(), next.Size(), next.Version)
	logger.Infof("Task %v: %v", cfg.TaskName, prompt)
	return nil
}

func runShow(logger logs.Log, cfg *config.Config, split dataset.Split, index int) error {
	d, err := dataset.New(logger, cfg.DatasetOptions(split))
	if err != nil {
		return err
	}
	img, text, err := d.At(index)
	if err != nil {
		return err
	}
	sample := d.Samples()[index]
	fmt.Printf("image:   %v (%vx%v)\n", sample.ImagePath, img.Width, img.Height)
	fmt.Printf("caption: %v\n", text)
	fmt.Printf("split:   %v (%v of %v samples)\n", split, index, d.Len())
	return nil
}

func runStats(logger logs.Log, cfg *config.Config, top int) error {
	cat, err := catalog.Open(logger, cfg.CatalogPath)
	if err != nil {
		return err
	}
	if _, err := cat.Rebuild(cfg.ImagesDir, cfg.AnnotationsDir); err != nil {
		return err
	}
	stats, err := cat.ComputeStats()
	if err != nil {
		return err
	}
	raw, err := json.MarshalIndent(stats, "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", string(raw))

	if top > 0 {
		records, err := cat.TopRanked(top)
		if err != nil {
			return err
		}
		for _, r := range records {
			fmt.Printf("%6.2f  %v (%v characters)\n", r.RankingScore, r.Base, r.CharacterCount)
		}
	}
	return nil
}

func runCheck(logger logs.Log, cfg *config.Config, minIOU float64) error {
	entries, err := os.ReadDir(cfg.AnnotationsDir)
	if err != nil {
		return err
	}
	malformed := 0
	overlapping := 0
	missingImages := 0
	total := 0
	for _, e := range entries {
		if e.IsDir() || strings.ToLower(filepath.Ext(e.Name())) != ".json" {
			continue
		}
		total++
		annotationPath := filepath.Join(cfg.AnnotationsDir, e.Name())
		ann, err := annotation.Load(annotationPath)
		if err != nil {
			logger.Warnf("Malformed: %v", err)
			malformed++
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".json")
		if findImage(cfg.ImagesDir, base) == "" {
			logger.Warnf("No image file for annotation %v", e.Name())
			missingImages++
		}
		for _, overlap := range ann.FindOverlaps(minIOU) {
			logger.Warnf("%v: characters %v and %v overlap with IOU %.2f", e.Name(), overlap.A, overlap.B, overlap.IOU)
			overlapping++
		}
	}
	logger.Infof("Checked %v annotations: %v malformed, %v without images, %v overlapping box pairs", total, malformed, missingImages, overlapping)
	if malformed != 0 {
		return fmt.Errorf("%v malformed annotation files", malformed)
	}
	return nil
}

func runPreview(logger logs.Log, cfg *config.Config, base, outFile string) error {
	imagePath := findImage(cfg.ImagesDir, base)
	if imagePath == "" {
		return fmt.Errorf("No image file found for '%v' in %v", base, cfg.ImagesDir)
	}
	ann, err := annotation.Load(filepath.Join(cfg.AnnotationsDir, base+".json"))
	if err != nil {
		return err
	}
	if err := preview.Render(imagePath, ann, cfg.Keys(), outFile); err != nil {
		return err
	}
	logger.Infof("Wrote %v", outFile)
	return nil
}

func findImage(imagesDir, base string) string {
	for _, ext := range imageExtensions {
		p := filepath.Join(imagesDir, base+ext)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
