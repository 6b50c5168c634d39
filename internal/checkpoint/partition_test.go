package checkpoint

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/as42sl/airbyte/internal/message"
	"github.com/as42sl/airbyte/internal/testutil"
)

// batchView is a Batch reduced to wire text so cmp can diff it.
type batchView struct {
	Anchor  string
	Records []string
}

func view(batches []Batch) []batchView {
	out := make([]batchView, 0, len(batches))
	for _, b := range batches {
		v := batchView{Anchor: string(b.Anchor.Raw())}
		for _, r := range b.Records {
			v.Records = append(v.Records, string(r.Raw()))
		}
		out = append(out, v)
	}
	return out
}

func mustDecode(t *testing.T, lines ...string) []message.Message {
	t.Helper()
	log := make([]message.Message, 0, len(lines))
	for _, line := range lines {
		m, err := message.Decode([]byte(line))
		require.NoError(t, err)
		log = append(log, m)
	}
	return log
}

const (
	s0 = `{"type":"STATE","state":{"data":{"cursor":0}}}`
	s1 = `{"type":"STATE","state":{"data":{"cursor":2}}}`
	r1 = `{"type":"RECORD","record":{"stream":"users","data":{"cursor":1}}}`
	r2 = `{"type":"RECORD","record":{"stream":"users","data":{"cursor":2}}}`
	r3 = `{"type":"RECORD","record":{"stream":"users","data":{"cursor":3}}}`
	lg = `{"type":"LOG","log":{"level":"INFO","message":"hi"}}`
)

func TestPartition(t *testing.T) {
	tests := []struct {
		name string
		log  []string
		want []batchView
	}{
		{
			name: "state records state",
			log:  []string{s0, r1, r2, s1},
			want: []batchView{
				{Anchor: s0, Records: []string{r1, r2}},
				{Anchor: s1},
			},
		},
		{
			name: "trailing records join the last batch",
			log:  []string{s0, r1, s1, r2, r3},
			want: []batchView{
				{Anchor: s0, Records: []string{r1}},
				{Anchor: s1, Records: []string{r2, r3}},
			},
		},
		{
			name: "other messages are ignored",
			log:  []string{lg, s0, lg, r1, lg},
			want: []batchView{
				{Anchor: s0, Records: []string{r1}},
			},
		},
		{
			name: "records before the first state are unanchored",
			log:  []string{r1, s0, r2},
			want: []batchView{
				{Anchor: s0, Records: []string{r2}},
			},
		},
		{
			name: "no states",
			log:  []string{r1, r2, lg},
			want: nil,
		},
		{
			name: "empty log",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := view(Partition(mustDecode(t, tt.log...)))
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("Partition() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUnanchored(t *testing.T) {
	log := mustDecode(t, r1, lg, r2, s0, r3)

	got := Unanchored(log)
	require.Len(t, got, 2)
	assert.Equal(t, r1, string(got[0].Raw()))
	assert.Equal(t, r2, string(got[1].Raw()))

	assert.Empty(t, Unanchored(mustDecode(t, s0, r1)))
}

// Every record after the first state lands in exactly one batch, in order,
// and every state anchors exactly one batch.
func TestPartition_ExhaustiveAndDisjoint(t *testing.T) {
	for seed := uint64(1); seed <= 25; seed++ {
		log, err := testutil.RandomLog(seed, 300)
		require.NoError(t, err)

		batches := Partition(log)

		var flat []message.Message
		for _, b := range batches {
			flat = append(flat, b.Anchor)
			for _, r := range b.Records {
				flat = append(flat, r)
			}
		}

		anchored := message.Checkpointed(log)[len(Unanchored(log)):]
		require.Len(t, flat, len(anchored), "seed %d", seed)
		for i := range anchored {
			// Same message, not merely equal content.
			assert.Same(t, anchored[i], flat[i], "seed %d position %d", seed, i)
		}
		assert.Len(t, batches, len(message.States(log)), "seed %d", seed)
	}
}

func TestDedup(t *testing.T) {
	// The repeated batch differs only in member order and whitespace.
	s0Reordered := `{"state": {"data": {"cursor": 0}}, "type": "STATE"}`
	r1Reordered := `{"record":{"data":{"cursor":1},"stream":"users"},"type":"RECORD"}`

	log := mustDecode(t, s0, r1, s1, r2, s0Reordered, r1Reordered, s1, r3)
	batches := Partition(log)
	require.Len(t, batches, 4)

	got, err := Dedup(batches)
	require.NoError(t, err)

	want := []batchView{
		{Anchor: s0, Records: []string{r1}},
		{Anchor: s1, Records: []string{r2}},
		{Anchor: s1, Records: []string{r3}},
	}
	if diff := cmp.Diff(want, view(got), cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("Dedup() mismatch (-want +got):\n%s", diff)
	}
}

func TestDedup_KeepsBatchesThatDifferInRecords(t *testing.T) {
	batches := Partition(mustDecode(t, s0, r1, s0, r1, r2))

	got, err := Dedup(batches)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDedup_KeepsBatchesThatDifferInComposition(t *testing.T) {
	composed := "{\"type\":\"RECORD\",\"record\":{\"stream\":\"users\",\"data\":{\"name\":\"caf\u00e9\"}}}"
	decomposed := "{\"type\":\"RECORD\",\"record\":{\"stream\":\"users\",\"data\":{\"name\":\"cafe\u0301\"}}}"
	batches := Partition(mustDecode(t, s0, composed, s0, decomposed))

	got, err := Dedup(batches)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestDedup_Idempotent(t *testing.T) {
	log, err := testutil.RandomLog(42, 400)
	require.NoError(t, err)

	once, err := Dedup(Partition(log))
	require.NoError(t, err)
	twice, err := Dedup(once)
	require.NoError(t, err)

	if diff := cmp.Diff(view(once), view(twice)); diff != "" {
		t.Errorf("second Dedup changed the batches (-once +twice):\n%s", diff)
	}
	assert.LessOrEqual(t, len(once), len(Partition(log)))
}

func TestFingerprint_IgnoresFormatting(t *testing.T) {
	a := Partition(mustDecode(t, s0, r1))[0]
	b := Partition(mustDecode(t, `{"state":{"data":{"cursor":0}},"type":"STATE"}`, r1))[0]
	c := Partition(mustDecode(t, s0, r2))[0]

	fa, err := Fingerprint(a)
	require.NoError(t, err)
	fb, err := Fingerprint(b)
	require.NoError(t, err)
	fc, err := Fingerprint(c)
	require.NoError(t, err)

	assert.Equal(t, fa, fb)
	assert.NotEqual(t, fa, fc)
}
