// Copyright 2024 The bithash Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Command bithash-stats loads key:value lines into a bithash.Map, deletes a
// random fraction of them, and reports how much the deletes hurt lookups
// and how much Heal recovers.
package main

import (
	"bufio"
	"bytes"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"os"
	"text/tabwriter"

	"github.com/bpowers/bithash"
	"github.com/bpowers/bithash/fingerprint"
	"github.com/bpowers/bithash/memory"
)

var (
	inPath   = flag.String("in", "testdata.small", "key:value file to load (- for stdin)")
	fraction = flag.Float64("delete", 0.5, "fraction of keys to delete before healing")
	seed     = flag.Uint64("seed", 1, "random seed for choosing keys to delete")
	hashName = flag.String("hash", "fnv1a", "fingerprint: fnv1a, farm, xxhash, xxh3 or murmur3")
	useMmap  = flag.Bool("mmap", false, "allocate bucket bitmaps with mmap")
	verbose  = flag.Bool("v", false, "log growth and heal events")
)

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if err := run(logger, os.Stdout); err != nil {
		logger.Error("bithash-stats failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, out io.Writer) error {
	if *fraction < 0 || *fraction > 1 {
		return fmt.Errorf("-delete must be between 0 and 1, not %g", *fraction)
	}
	fp, ok := fingerprint.ByName(*hashName)
	if !ok {
		return fmt.Errorf("unknown -hash %q", *hashName)
	}
	opts := []bithash.Option{
		bithash.WithFingerprint(fp),
		bithash.WithLogger(logger),
	}
	if *useMmap {
		opts = append(opts, bithash.WithAllocator(memory.Mmap{}))
	}

	m, err := bithash.New[string, string](opts...)
	if err != nil {
		return fmt.Errorf("bithash.New: %w", err)
	}
	defer m.Release()

	keys, err := load(m, *inPath)
	if err != nil {
		return err
	}
	logger.Info("loaded table", "path", *inPath, "count", m.Len(), "capacity", m.Cap())

	rng := rand.New(rand.NewPCG(*seed, *seed))
	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})
	deletes := int(float64(len(keys)) * *fraction)
	for _, k := range keys[:deletes] {
		if !m.Delete(k) {
			return fmt.Errorf("Delete(%q): key went missing", k)
		}
	}
	for _, k := range keys[deletes:] {
		if m.Find(k) == nil {
			return fmt.Errorf("Find(%q): key went missing after deletes", k)
		}
	}

	loaded := m.Stats()
	m.Heal()
	healed := m.Stats()

	for _, k := range keys[deletes:] {
		if m.Find(k) == nil {
			return fmt.Errorf("Find(%q): key went missing after Heal", k)
		}
	}

	tw := tabwriter.NewWriter(out, 0, 8, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\tcount\tcapacity\tlive buckets\tcollided\tmax probe\tmean probe\thealth\t\n")
	for _, row := range []struct {
		name  string
		stats bithash.Stats
	}{
		{"deleted", loaded},
		{"healed", healed},
	} {
		s := row.stats
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d/%d\t%d\t%d\t%.3f\t%.3f\t\n",
			row.name, s.Count, s.Capacity, s.LiveBuckets, s.Buckets, s.Collided, s.MaxProbe, s.MeanProbe, s.Health)
	}
	return tw.Flush()
}

// load adds every key:value line of path to m and returns the keys.
func load(m *bithash.Map[string, string], path string) ([]string, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer func() {
			_ = f.Close()
		}()
		r = f
	}

	var keys []string
	s := bufio.NewScanner(bufio.NewReaderSize(r, 16*1024))
	for line := 1; s.Scan(); line++ {
		k, v, ok := bytes.Cut(s.Bytes(), []byte{':'})
		if !ok {
			return nil, fmt.Errorf("%s:%d: expected key:value", path, line)
		}
		key := string(k)
		if _, err := m.Add(key, string(v)); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		keys = append(keys, key)
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return keys, nil
}
