package poll

// Tally is the aggregated view of a location poll as shown on a leaderboard.
// Only options with at least one vote are part of a tally.
type Tally struct {
	Location    string                 `json:"location"`
	VoteCounts  map[string]int         `json:"vote_counts"`
	Voters      map[string][]VoterMeta `json:"voters"`
	Leaderboard []*Option              `json:"leaderboard"`
	TotalVotes  int                    `json:"total_votes"`
}

// NewTally aggregates a location poll. A nil poll yields an empty tally.
func NewTally(location string, p *Poll) *Tally {
	t := &Tally{
		Location:    location,
		VoteCounts:  map[string]int{},
		Voters:      map[string][]VoterMeta{},
		Leaderboard: []*Option{},
	}
	if p == nil {
		return t
	}

	visible := VisibleOptions(p.Options)
	for _, o := range visible {
		t.VoteCounts[o.Label] = o.Votes
		voters := make([]VoterMeta, 0, len(o.Voters))
		for _, userID := range o.Voters {
			meta, ok := p.Profiles[userID]
			if !ok {
				meta = VoterMeta{UserID: userID}
			}
			voters = append(voters, meta)
		}
		t.Voters[o.Label] = voters
	}
	t.Leaderboard = SortByVotesDescending(visible)
	t.TotalVotes = TotalVotes(visible)
	return t
}

// Percentage returns the share of the option with the given label.
func (t *Tally) Percentage(label string) float64 {
	return Percentage(t.VoteCounts[label], t.TotalVotes)
}

// VisibleOptions returns copies of the options that have at least one vote, in their original order.
func VisibleOptions(options []*Option) []*Option {
	visible := []*Option{}
	for _, o := range options {
		if o.Votes > 0 {
			visible = append(visible, o.copy())
		}
	}
	return visible
}
