package vo

import "time"

type Bucket struct {
	Name string
	From time.Duration
	To   time.Duration
}

type BucketList []Bucket

// GetBucketList returns the request duration buckets used in summaries.
func GetBucketList() BucketList {
	return BucketList{
		{Name: "fast < 100 ms", From: 0, To: time.Millisecond * 100},
		{Name: "ok < 300 ms", From: time.Millisecond * 100, To: time.Millisecond * 300},
		{Name: "slow < 1 s", From: time.Millisecond * 300, To: time.Second},
		{Name: "throttled < 3 s", From: time.Second, To: time.Second * 3},
		{Name: "struggling < 10 s", From: time.Second * 3, To: time.Second * 10},
		{Name: "timing out >= 10 s", From: time.Second * 10, To: time.Hour},
	}
}

// Bucket finds the bucket for a duration, ok is false for durations beyond
// the last bucket.
func (bl BucketList) Bucket(d time.Duration) (b Bucket, ok bool) {
	for _, b := range bl {
		if d >= b.From && d < b.To {
			return b, true
		}
	}
	return Bucket{}, false
}
