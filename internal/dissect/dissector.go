package dissect

import (
	"errors"
	"fmt"
	"io"

	"capdiff/internal/logging"
)

// Level selects how deeply packets are decoded, trading detail for speed.
type Level int

const (
	// CountOnly records packet existence per bucket with no field decoding.
	CountOnly Level = 1
	// ThroughIP decodes the link and network layer headers and stops
	// before the transport layer. This is the default.
	ThroughIP Level = 2
	// Detailed decodes every layer and nested substructure to full depth.
	Detailed Level = 10
)

// String returns the level's configuration name.
func (l Level) String() string {
	switch l {
	case CountOnly:
		return "count-only"
	case ThroughIP:
		return "through-ip"
	case Detailed:
		return "detailed"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ErrUnsupportedLevel marks a dissection level outside the known set. An
// unrecognized level is a configuration error, never a silent fallback.
var ErrUnsupportedLevel = errors.New("unsupported dissection level")

// ParseLevel accepts a level by name or by its numeric value.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "count-only", "1":
		return CountOnly, nil
	case "through-ip", "2":
		return ThroughIP, nil
	case "detailed", "10":
		return Detailed, nil
	}
	return 0, fmt.Errorf("%w: %q (known: count-only, through-ip, detailed)", ErrUnsupportedLevel, s)
}

// Options configures one dissection pass.
type Options struct {
	Level        Level
	BinSize      int64  // seconds per time bin; 0 disables binning
	MaximumCount int    // stop after this many packets; 0 is unbounded
	Filter       string // packet filter expression applied at the source
	CacheResults bool
	CacheSuffix  string
}

// DefaultOptions returns the default dissection options.
func DefaultOptions() Options {
	return Options{Level: ThroughIP, CacheSuffix: ".taffy"}
}

// Validate checks the options against the known level set.
func (o Options) Validate() error {
	switch o.Level {
	case CountOnly, ThroughIP, Detailed:
	default:
		return fmt.Errorf("%w: %d (known: %d, %d, %d)",
			ErrUnsupportedLevel, int(o.Level), int(CountOnly), int(ThroughIP), int(Detailed))
	}
	if o.BinSize < 0 {
		return fmt.Errorf("bin size must be >= 0, got %d", o.BinSize)
	}
	if o.MaximumCount < 0 {
		return fmt.Errorf("packet count must be >= 0, got %d", o.MaximumCount)
	}
	return nil
}

// Dissector walks a packet source and accumulates its field counts into a
// Dissection store. A Dissector owns exactly one store during a pass; it is
// not used from multiple goroutines.
type Dissector struct {
	opts Options
	log  *logging.Logger
}

// NewDissector returns a dissector for the given options, or the
// configuration error for an unknown level.
func NewDissector(opts Options, log *logging.Logger) (*Dissector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Level == CountOnly && opts.BinSize == 0 {
		log.Info("counting packets only with no binning is unlikely to be helpful")
	}
	return &Dissector{opts: opts, log: log}, nil
}

// Dissect consumes src until exhaustion (or the maximum packet count) and
// returns the populated, frozen store. A source read error is fatal; a
// decode problem inside a single layer or field only costs that observation.
func (d *Dissector) Dissect(src Source, sourceName string) (*Dissection, error) {
	dis := NewDissection(sourceName, d.opts)

	processed := 0
	for {
		if d.opts.MaximumCount > 0 && processed >= d.opts.MaximumCount {
			break
		}
		pkt, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", sourceName, err)
		}
		d.dissectPacket(dis, pkt)
		processed++
	}

	if err := dis.CalculateMetadata(); err != nil {
		return nil, err
	}
	return dis, nil
}

// dissectPacket records one packet's observations at its time bucket.
func (d *Dissector) dissectPacket(dis *Dissection, pkt Packet) {
	bucket := AggregateBucket
	if d.opts.BinSize > 0 {
		ts := pkt.Timestamp.Unix()
		bucket = ts - ts%d.opts.BinSize
	}

	dis.Incr(bucket, TotalKey, TotalSubkey)
	if d.opts.Level == CountOnly {
		return
	}

	prefix := ""
	for _, layer := range pkt.Layers {
		if d.opts.Level == ThroughIP && layer.Class() > ClassNetwork {
			break
		}
		path := prefix + layer.Name()
		// Chain presence is itself counted, so a layer with no
		// recordable fields still shows up in the taxonomy.
		dis.Incr(bucket, path, layer.Name())

		fields := layer.Fields()
		if fields == nil {
			d.log.Verbose("unable to deep dive into layer %q in %s", path, dis.SourceFile)
			prefix = path + "."
			continue
		}
		d.addFields(dis, bucket, fields, path+".")
		prefix = path + "."
	}
}

// addFields walks one field list, recursing through nested substructures.
func (d *Dissector) addFields(dis *Dissection, bucket int64, fields []Field, prefix string) {
	for _, f := range fields {
		if f.Value.Kind == KindNested {
			d.addFields(dis, bucket, f.Value.Fields, prefix+f.Name+".")
			continue
		}
		d.addItem(dis, bucket, f.Value, prefix+f.Name)
	}
}

// addItem records one field value under key, whatever its shape. Empty lists
// contribute nothing; a list of named items counts each element under its own
// name rather than the raw list.
func (d *Dissector) addItem(dis *Dissection, bucket int64, v Value, key string) {
	switch v.Kind {
	case KindInt, KindFloat, KindStr, KindBytes:
		dis.Incr(bucket, key, v.Normalize())
	case KindNamed:
		dis.Incr(bucket, key, v.Name)
	case KindList:
		for _, item := range v.Items {
			d.addItem(dis, bucket, item, key)
		}
	case KindNested:
		d.addFields(dis, bucket, v.Fields, key+".")
	default:
		// A value shape outside the known set is skipped without
		// failing the traversal.
		d.log.Verbose("skipping field %q with unknown value kind %d", key, int(v.Kind))
	}
}
