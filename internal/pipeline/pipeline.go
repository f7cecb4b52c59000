// Package pipeline loads capture files into dissection stores, going through
// the cache gate when caching is enabled.
package pipeline

import (
	"fmt"
	"sync"

	"capdiff/internal/cache"
	"capdiff/internal/dissect"
	uferrors "capdiff/internal/errors"
	"capdiff/internal/logging"
	"capdiff/internal/pcapfile"
	"capdiff/internal/progress"
)

// Loader dissects capture files with a fixed set of options.
type Loader struct {
	opts         dissect.Options
	gate         *cache.Gate
	log          *logging.Logger
	showProgress bool
}

// NewLoader validates the options and returns a loader.
func NewLoader(opts dissect.Options, log *logging.Logger) (*Loader, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Loader{
		opts: opts,
		gate: cache.NewGate(opts.CacheSuffix, log),
		log:  log,
	}, nil
}

// EnableProgress turns on the per-packet counter during dissection. Left off
// for concurrent multi-capture loads, where interleaved counters would
// garble the terminal.
func (l *Loader) EnableProgress() {
	l.showProgress = true
}

// progressSource counts packets as they flow from a capture source.
type progressSource struct {
	src     dissect.Source
	counter *progress.Counter
}

func (p *progressSource) Next() (dissect.Packet, error) {
	pkt, err := p.src.Next()
	if err == nil {
		p.counter.Increment()
	}
	return pkt, err
}

// LoadOne produces the dissection store for a single capture file, restoring
// it from cache when possible and populating the cache afterwards when
// caching is enabled. A cache version mismatch propagates as is.
func (l *Loader) LoadOne(path string) (*dissect.Dissection, error) {
	fp := cache.NewFingerprint(path, l.opts)
	if l.opts.CacheResults {
		cached, err := l.gate.TryLoad(fp)
		if err != nil {
			return nil, err
		}
		if cached != nil {
			return cached, nil
		}
	}

	file, err := pcapfile.Open(path, l.opts.Filter)
	if err != nil {
		return nil, uferrors.WrapCaptureError(err, path)
	}
	defer file.Close()

	var src dissect.Source = file
	if l.showProgress {
		counter := progress.NewCounter(path)
		defer counter.Finish()
		src = &progressSource{src: file, counter: counter}
	}

	dissector, err := dissect.NewDissector(l.opts, l.log)
	if err != nil {
		return nil, err
	}
	l.log.Info("dissecting %s at level %s", path, l.opts.Level)
	dis, err := dissector.Dissect(src, path)
	if err != nil {
		return nil, err
	}

	if l.opts.CacheResults {
		if err := l.gate.Store(fp, dis); err != nil {
			return nil, err
		}
	}
	return dis, nil
}

// LoadAll dissects every capture concurrently. Each goroutine owns its store
// exclusively; results come back in input order. The first error wins.
func (l *Loader) LoadAll(paths []string) ([]*dissect.Dissection, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no capture files given")
	}

	results := make([]*dissect.Dissection, len(paths))
	errs := make([]error, len(paths))
	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			results[i], errs[i] = l.LoadOne(path)
		}(i, path)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return results, nil
}
