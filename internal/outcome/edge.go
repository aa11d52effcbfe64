package outcome

// House edge constants. Each one deflates the fair multiplier once per bet.
const (
	// DiceNumerator bakes a 1% edge into 99/win_chance.
	DiceNumerator = 99.0
	DiceMinChance = 0.01
	DiceMaxChance = 98.0

	MinesEdge = 0.99
	TowerEdge = 0.98

	CoinflipMultiplier = 1.98

	CrashInstantChance = 0.04
	CrashEdgeFloor     = 0.99
	// CrashGrowthPerMS is k in e^(k*t) with t in milliseconds.
	CrashGrowthPerMS = 0.00006
	CrashMaxPoint    = 1_000_000.0

	BlackjackWin     = 2.0
	BlackjackNatural = 2.5
	BlackjackPush    = 1.0
)
