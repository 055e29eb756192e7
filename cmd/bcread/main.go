// Command bcread reads an MLIR-style bytecode file and reports a one-line
// summary, or the first diagnostic encountered.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/anvilir/bytecode/bytecode"
	"github.com/anvilir/bytecode/cache"
	"github.com/anvilir/bytecode/config"
	"github.com/anvilir/bytecode/ir"
)

func main() {
	configPath := flag.String("config", "", "directory containing bytecode.toml")
	allowUnregistered := flag.Bool("allow-unregistered-dialects", false, "tolerate dialects the host context does not know about")
	cachePath := flag.String("cache", "", "sqlite file caching parsed-module summaries by content hash")
	verbose := flag.Bool("v", false, "also print the dialect list on success")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: bcread [-config path] [-allow-unregistered-dialects] [-cache path] [-v] <file>")
		os.Exit(2)
	}

	if err := run(flag.Arg(0), *configPath, *cachePath, *allowUnregistered, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "bcread:", err)
		os.Exit(1)
	}
}

func run(path, configPath, cachePath string, allowUnregistered, verbose bool) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if !bytecode.IsBytecode(buf) {
		return fmt.Errorf("%s is not an MLIR bytecode file", path)
	}

	var store *cache.Store
	hash := cache.Hash(buf)
	if cachePath != "" {
		store, err = cache.Open(cachePath)
		if err != nil {
			return err
		}
		defer store.Close()

		if summary, ok, err := store.Get(hash); err != nil {
			return err
		} else if ok {
			fmt.Printf("%s: cached: version=%d producer=%q operations=%d\n", path, summary.Version, summary.Producer, summary.NumOperations)
			return nil
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	cfg.AllowUnregisteredDialects = cfg.AllowUnregisteredDialects || allowUnregistered

	target := ir.NewBlock()
	info, err := bytecode.ReadBytecodeFile(buf, path, target, cfg)
	if err != nil {
		return err
	}

	summary := summarize(target)
	summary.Version = info.Version
	summary.Producer = info.Producer
	if store != nil {
		if err := store.Put(hash, summary); err != nil {
			return err
		}
	}

	fmt.Printf("%s: ok: version=%d producer=%q operations=%d\n", path, summary.Version, summary.Producer, summary.NumOperations)
	if verbose {
		fmt.Printf("  dialects: %v\n", summary.Dialects)
	}
	return nil
}

func loadConfig(dir string) (*config.ParserConfig, error) {
	if dir == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// summarize walks the parsed top-level block, counting operations and the
// distinct dialects their names belong to.
func summarize(block *ir.Block) cache.Summary {
	seen := map[string]bool{}
	var dialects []string
	var count int

	var walk func(*ir.Block)
	walk = func(b *ir.Block) {
		for _, op := range b.Operations {
			count++
			if dot := strings.IndexByte(string(op.Name), '.'); dot >= 0 {
				d := string(op.Name)[:dot]
				if !seen[d] {
					seen[d] = true
					dialects = append(dialects, d)
				}
			}
			for _, r := range op.Regions {
				for _, inner := range r.Blocks {
					walk(inner)
				}
			}
		}
	}
	walk(block)

	return cache.Summary{NumOperations: count, Dialects: dialects}
}
