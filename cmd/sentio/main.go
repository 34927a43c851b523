// Package main provides the sentio CLI.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sentio-ml/sentio/internal/data"
	"github.com/sentio-ml/sentio/internal/tokenizer"
	"github.com/sentio-ml/sentio/internal/train"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		return
	}

	switch os.Args[1] {
	case "prepare":
		runPrepare(os.Args[2:])
	case "train":
		runTrain(os.Args[2:])
	case "eval":
		runEval(os.Args[2:])
	case "version":
		fmt.Printf("sentio %s\n", version)
	case "help", "-h", "-help", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
}

func printUsage() {
	fmt.Println("sentio - self-attentive sentence classification")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  prepare    Build a dataset directory from labelled text")
	fmt.Println("  train      Train a classifier on a prepared dataset")
	fmt.Println("  eval       Evaluate a checkpoint on a dataset split")
	fmt.Println("  version    Show version")
	fmt.Println("")
	fmt.Println("Run 'sentio <command> -h' for command flags.")
}

func runPrepare(args []string) {
	fs := flag.NewFlagSet("prepare", flag.ExitOnError)
	input := fs.String("input", "", "labelled corpus, one \"label<TAB>text\" per line")
	out := fs.String("out", "", "dataset directory to create")
	embedDim := fs.Int("embed-dim", 100, "embedding dimension")
	vectors := fs.String("vectors", "", "optional word2vec text file for pretrained embeddings")
	trainFrac := fs.Float64("train-frac", 0.8, "fraction of examples for the training split")
	valFrac := fs.Float64("val-frac", 0.1, "fraction for validation; the rest becomes the test split")
	seed := fs.Int64("seed", 42, "shuffle seed for the split assignment")
	fs.Parse(args)

	if *input == "" || *out == "" {
		fmt.Fprintln(os.Stderr, "prepare requires -input and -out")
		fs.Usage()
		os.Exit(2)
	}

	enc, err := tokenizer.NewDefault()
	if err != nil {
		log.Fatal(err)
	}
	stats, err := data.Prepare(data.PrepareConfig{
		InputPath:   *input,
		OutputDir:   *out,
		EmbedDim:    *embedDim,
		VectorsPath: *vectors,
		TrainFrac:   *trainFrac,
		ValFrac:     *valFrac,
		Seed:        *seed,
	}, enc)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("prepared %d examples into %s\n", stats.Examples, *out)
	fmt.Printf("vocabulary: %d tokens | splits: train %d, val %d, test %d\n",
		stats.VocabSize, stats.TrainSize, stats.ValSize, stats.TestSize)
	if *vectors != "" {
		fmt.Printf("pretrained vectors matched %d of %d tokens\n", stats.Pretrained, stats.VocabSize)
	}
}

func runTrain(args []string) {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	defaults := train.DefaultConfig()

	configPath := fs.String("config", "", "YAML config file; explicit flags override its values")
	batchSize := fs.Int("batch", defaults.BatchSize, "batch size")
	embedDim := fs.Int("embed-dim", defaults.EmbedDim, "embedding dimension, must match the dataset")
	hiddenDim := fs.Int("hidden-dim", defaults.HiddenDim, "LSTM width per direction")
	attnDim := fs.Int("attn-dim", defaults.AttnDim, "attention projection dimension")
	attnHeads := fs.Int("attn-heads", defaults.AttnHeads, "attention heads")
	layers := fs.Int("layers", defaults.Layers, "LSTM layers")
	maxLen := fs.Int("max-len", defaults.MaxLen, "sequence length to pad or truncate to")
	dropout := fs.Float64("dropout", float64(defaults.Dropout), "dropout probability")
	lr := fs.Float64("lr", float64(defaults.LR), "Adam learning rate")
	epochs := fs.Int("epochs", defaults.Epochs, "training epochs")
	clipNorm := fs.Float64("clip-norm", float64(defaults.ClipNorm), "gradient clipping norm, 0 disables")
	datasetDir := fs.String("data", defaults.DatasetDir, "prepared dataset directory")
	outputDir := fs.String("out", defaults.OutputDir, "directory for checkpoints")
	seed := fs.Int64("seed", defaults.Seed, "seed for initialization and batch shuffling")
	freeze := fs.Bool("freeze-embeddings", defaults.FreezeEmbeddings, "keep the embedding table fixed")
	fs.Parse(args)

	cfg := defaults
	if *configPath != "" {
		loaded, err := train.LoadConfig(*configPath)
		if err != nil {
			log.Fatal(err)
		}
		cfg = loaded
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "batch":
			cfg.BatchSize = *batchSize
		case "embed-dim":
			cfg.EmbedDim = *embedDim
		case "hidden-dim":
			cfg.HiddenDim = *hiddenDim
		case "attn-dim":
			cfg.AttnDim = *attnDim
		case "attn-heads":
			cfg.AttnHeads = *attnHeads
		case "layers":
			cfg.Layers = *layers
		case "max-len":
			cfg.MaxLen = *maxLen
		case "dropout":
			cfg.Dropout = float32(*dropout)
		case "lr":
			cfg.LR = float32(*lr)
		case "epochs":
			cfg.Epochs = *epochs
		case "clip-norm":
			cfg.ClipNorm = float32(*clipNorm)
		case "data":
			cfg.DatasetDir = *datasetDir
		case "out":
			cfg.OutputDir = *outputDir
		case "seed":
			cfg.Seed = *seed
		case "freeze-embeddings":
			cfg.FreezeEmbeddings = *freeze
		}
	})
	if cfg.OutputDir == "" {
		cfg.OutputDir = "out"
	}

	summary, err := train.Run(cfg)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("\nrun %s finished after %d epochs (%d steps)\n",
		summary.RunID, summary.Epochs, summary.Steps)
	fmt.Printf("best validation accuracy: %.4f\n", summary.BestValAccuracy)
	fmt.Printf("final: val acc %.4f loss %.4f | train acc %.4f loss %.4f\n",
		summary.FinalVal.Accuracy, summary.FinalVal.Loss,
		summary.FinalTrain.Accuracy, summary.FinalTrain.Loss)
}

func runEval(args []string) {
	fs := flag.NewFlagSet("eval", flag.ExitOnError)
	checkpoint := fs.String("checkpoint", "", "checkpoint file (.sentio)")
	datasetDir := fs.String("data", "", "prepared dataset directory")
	split := fs.String("split", data.SplitTest, "split to evaluate: training, validation or test")
	fs.Parse(args)

	if *checkpoint == "" || *datasetDir == "" {
		fmt.Fprintln(os.Stderr, "eval requires -checkpoint and -data")
		fs.Usage()
		os.Exit(2)
	}

	res, err := train.EvalCheckpoint(*checkpoint, *datasetDir, *split)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%s: accuracy %.4f, loss %.4f\n", *split, res.Accuracy, res.Loss)
}
