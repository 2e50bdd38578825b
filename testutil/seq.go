package testutil

// Tagged is a value stamped with the producer that created it and its
// position in that producer's stream.
type Tagged struct {
	Producer int `json:"producer"`
	Seq      int `json:"seq"`
}

// Seq returns [start, start+n).
func Seq(start, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = start + i
	}
	return out
}

// TaggedSeq returns n values for producer, numbered from 0.
func TaggedSeq(producer, n int) []Tagged {
	out := make([]Tagged, n)
	for i := range out {
		out[i] = Tagged{Producer: producer, Seq: i}
	}
	return out
}

// CheckPerProducerOrder returns the first value that arrived out of order
// relative to an earlier value from the same producer.
func CheckPerProducerOrder(values []Tagged) (Tagged, bool) {
	last := make(map[int]int)
	for _, v := range values {
		if prev, ok := last[v.Producer]; ok && v.Seq <= prev {
			return v, false
		}
		last[v.Producer] = v.Seq
	}
	return Tagged{}, true
}
