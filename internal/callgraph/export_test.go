package callgraph

// Export unexported functions for testing.

// ChooseLeader exports chooseLeader for external tests.
func ChooseLeader(scc []Func, disc []int, external func(Func) bool) Func {
	return chooseLeader(scc, disc, external)
}
