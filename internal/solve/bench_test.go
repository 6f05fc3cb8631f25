package solve

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/ornlund/mdshake/internal/sweep"
)

func benchPositions(b *testing.B, waters int, r sweep.Runner) {
	cons, invMass, prev, pos := waterBox(waters, rand.New(rand.NewSource(1)))
	s, err := New(cons, invMass, nil, Config{Runner: r})
	if err != nil {
		b.Fatal(err)
	}
	work := make([]r3.Vec, len(pos))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(work, pos)
		if _, err := s.ConstrainPositions(work, prev); err != nil {
			b.Fatal(err)
		}
	}
}

func benchVelocities(b *testing.B, waters int, r sweep.Runner) {
	cons, invMass, prev, _ := waterBox(waters, rand.New(rand.NewSource(1)))
	s, err := New(cons, invMass, nil, Config{Runner: r})
	if err != nil {
		b.Fatal(err)
	}
	vel := randVel(len(prev), rand.New(rand.NewSource(2)))
	work := make([]r3.Vec, len(vel))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		copy(work, vel)
		if _, err := s.ConstrainVelocities(prev, work); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkPositionsSerial100(b *testing.B)   { benchPositions(b, 100, sweep.Serial{}) }
func BenchmarkPositionsChunked100(b *testing.B)  { benchPositions(b, 100, sweep.Chunked{}) }
func BenchmarkPositionsBatch100(b *testing.B)    { benchPositions(b, 100, sweep.Batch{}) }
func BenchmarkPositionsSerial2000(b *testing.B)  { benchPositions(b, 2000, sweep.Serial{}) }
func BenchmarkPositionsChunked2000(b *testing.B) { benchPositions(b, 2000, sweep.Chunked{}) }
func BenchmarkPositionsBatch2000(b *testing.B)   { benchPositions(b, 2000, sweep.Batch{}) }

func BenchmarkVelocitiesSerial2000(b *testing.B)  { benchVelocities(b, 2000, sweep.Serial{}) }
func BenchmarkVelocitiesChunked2000(b *testing.B) { benchVelocities(b, 2000, sweep.Chunked{}) }
