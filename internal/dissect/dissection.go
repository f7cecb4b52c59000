package dissect

import (
	"fmt"
	"sort"
	"strings"
)

// TotalKey and TotalSubkey form the sentinel counter incremented once per
// packet, so overall packet counts can be queried regardless of how much
// field detail was recorded.
const (
	TotalKey    = "__TOTAL__"
	TotalSubkey = "packet"
)

// AggregateBucket is the time bucket that accumulates all packets regardless
// of binning. It always exists; per-bin buckets exist additionally when a bin
// size is configured.
const AggregateBucket int64 = 0

// Counts maps field path -> normalized value -> occurrence count for a
// single time bucket.
type Counts map[string]map[string]int64

// Metadata holds totals derived once traversal completes.
type Metadata struct {
	TotalPackets int64 `json:"total_packets"`
	FirstBucket  int64 `json:"first_bucket"`
	LastBucket   int64 `json:"last_bucket"`
	BucketCount  int   `json:"bucket_count"`
}

// Dissection is the counting store for a single capture: a three-level
// mapping bucket -> field path -> value -> count, plus the options that
// produced it. It is mutated only by one traversal pass and is read-only
// afterwards.
type Dissection struct {
	SourceFile   string          `json:"source_file"`
	Level        Level           `json:"level"`
	BinSize      int64           `json:"bin_size"`
	MaximumCount int             `json:"maximum_count"`
	Filter       string          `json:"filter"`
	Data         map[int64]Counts `json:"data"`
	Meta         Metadata        `json:"metadata"`

	frozen bool
}

// NewDissection returns an empty store for the given capture and options.
// The aggregate bucket exists from the start.
func NewDissection(sourceFile string, opts Options) *Dissection {
	return &Dissection{
		SourceFile:   sourceFile,
		Level:        opts.Level,
		BinSize:      opts.BinSize,
		MaximumCount: opts.MaximumCount,
		Filter:       opts.Filter,
		Data:         map[int64]Counts{AggregateBucket: make(Counts)},
	}
}

// Incr adds one to the count for (bucket, key, value). The aggregate bucket
// is always incremented as well, so "all time" queries never need to sum the
// per-bin buckets. Increments are associative and commutative; final counts
// do not depend on packet arrival order.
func (d *Dissection) Incr(bucket int64, key, value string) {
	d.IncrBy(bucket, key, value, 1)
}

// IncrBy adds n to the count for (bucket, key, value).
func (d *Dissection) IncrBy(bucket int64, key, value string, n int64) {
	d.incrOne(AggregateBucket, key, value, n)
	if bucket != AggregateBucket {
		d.incrOne(bucket, key, value, n)
	}
}

func (d *Dissection) incrOne(bucket int64, key, value string, n int64) {
	counts, ok := d.Data[bucket]
	if !ok {
		counts = make(Counts)
		d.Data[bucket] = counts
	}
	values, ok := counts[key]
	if !ok {
		values = make(map[string]int64)
		counts[key] = values
	}
	values[value] += n
}

// Bucket returns the counts recorded for one time bucket, or nil when the
// bucket was never seen.
func (d *Dissection) Bucket(bucket int64) Counts {
	return d.Data[bucket]
}

// Buckets returns all recorded bucket keys in ascending order.
func (d *Dissection) Buckets() []int64 {
	buckets := make([]int64, 0, len(d.Data))
	for b := range d.Data {
		buckets = append(buckets, b)
	}
	sort.Slice(buckets, func(i, j int) bool { return buckets[i] < buckets[j] })
	return buckets
}

// Entry is one enumerated (bucket, key, value, count) tuple.
type Entry struct {
	Bucket int64
	Key    string
	Value  string
	Count  int64
}

// FindData enumerates count tuples, filtered by a set of requested buckets
// (nil means the aggregate bucket only), a substring match on the field path,
// a substring match on the value, and a minimum count. Output order is
// deterministic for a fixed store: ascending bucket, then key, then value.
func (d *Dissection) FindData(buckets []int64, matchKey, matchValue string, minimumCount int64) []Entry {
	if buckets == nil {
		buckets = []int64{AggregateBucket}
	}
	sorted := make([]int64, len(buckets))
	copy(sorted, buckets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var out []Entry
	for _, bucket := range sorted {
		counts, ok := d.Data[bucket]
		if !ok {
			continue
		}
		keys := make([]string, 0, len(counts))
		for key := range counts {
			if matchKey != "" && !strings.Contains(key, matchKey) {
				continue
			}
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			values := make([]string, 0, len(counts[key]))
			for value := range counts[key] {
				if matchValue != "" && !strings.Contains(value, matchValue) {
					continue
				}
				values = append(values, value)
			}
			sort.Strings(values)
			for _, value := range values {
				count := counts[key][value]
				if count < minimumCount {
					continue
				}
				out = append(out, Entry{Bucket: bucket, Key: key, Value: value, Count: count})
			}
		}
	}
	return out
}

// Merge adds every count of other into d. Both stores must not yet be frozen.
// Used when one capture is dissected in parallel slices.
func (d *Dissection) Merge(other *Dissection) error {
	if d.frozen {
		return fmt.Errorf("merge into frozen dissection of %s", d.SourceFile)
	}
	// Bucket 0 of other already aggregates its per-bin buckets, so every
	// bucket merges directly without re-mirroring into the aggregate.
	for bucket, counts := range other.Data {
		for key, values := range counts {
			for value, count := range values {
				d.incrOne(bucket, key, value, count)
			}
		}
	}
	return nil
}

// CalculateMetadata derives the frozen totals after traversal completes. It
// must be called exactly once per store; a second call is an error because
// the store is read-only from then on.
func (d *Dissection) CalculateMetadata() error {
	if d.frozen {
		return fmt.Errorf("metadata already calculated for %s", d.SourceFile)
	}
	d.Meta.TotalPackets = d.Data[AggregateBucket][TotalKey][TotalSubkey]
	d.Meta.BucketCount = len(d.Data)
	first, last := int64(0), int64(0)
	for bucket := range d.Data {
		if bucket == AggregateBucket {
			continue
		}
		if first == 0 || bucket < first {
			first = bucket
		}
		if bucket > last {
			last = bucket
		}
	}
	d.Meta.FirstBucket = first
	d.Meta.LastBucket = last
	d.frozen = true
	return nil
}

// Frozen reports whether traversal has completed and the store is read-only.
func (d *Dissection) Frozen() bool { return d.frozen }

// Freeze marks a store restored from cache as read-only without recomputing
// its metadata.
func (d *Dissection) Freeze() { d.frozen = true }
