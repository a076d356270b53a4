package catch

// LevelFor derives the difficulty level from a score: one level per
// pointsPerLevel points, starting at 1.
func LevelFor(score, pointsPerLevel int) int {
	if pointsPerLevel <= 0 || score < 0 {
		return 1
	}
	return score/pointsPerLevel + 1
}

// Scorer tracks score and misses for one game.
type Scorer struct {
	pointsPerLevel int
	score          int
	missed         int
}

// NewScorer creates a scorer that levels up every pointsPerLevel points.
func NewScorer(pointsPerLevel int) *Scorer {
	return &Scorer{pointsPerLevel: pointsPerLevel}
}

// Award adds points and reports whether the level went up.
func (s *Scorer) Award(points int) (score int, levelUp bool) {
	before := s.Level()
	s.score += points
	return s.score, s.Level() > before
}

// Miss counts an uncaught object and returns the new miss count.
func (s *Scorer) Miss() int {
	s.missed++
	return s.missed
}

// Reset zeroes score and misses.
func (s *Scorer) Reset() {
	s.score = 0
	s.missed = 0
}

func (s *Scorer) Score() int  { return s.score }
func (s *Scorer) Missed() int { return s.missed }

// Level returns the level derived from the current score.
func (s *Scorer) Level() int {
	return LevelFor(s.score, s.pointsPerLevel)
}
