package testutil

// Fixture is one named query source.
type Fixture struct {
	Name string
	Text string
}

// ChainQueries returns three queries in a straight dependency line
// rooted at the necronomicron source table. Registering all of them
// yields four entries: the queries plus one synthesized table.
func ChainQueries() []Fixture {
	return []Fixture{
		{Name: "summoning_ledger", Text: "from necronomicron\nfilter circle > 0\n"},
		{Name: "enriched_ledger", Text: "from summoning_ledger\nderive [rank = circle * 3]\n"},
		{Name: "seance_counts", Text: "from enriched_ledger\ntake 9\n"},
	}
}

// DiamondQueries returns two queries over one source feeding a join,
// forming a diamond with the arcana table at its root.
func DiamondQueries() []Fixture {
	return []Fixture{
		{Name: "veil", Text: "from arcana\nfilter circle > 1\n"},
		{Name: "ward", Text: "from arcana\nfilter circle <= 1\n"},
		{Name: "merged", Text: "from veil\njoin ward [==sigil]\n"},
	}
}
