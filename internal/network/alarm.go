package network

// #region alarm
// alarm is the classic Burglary/Earthquake/Alarm/JohnCalls/MaryCalls network.
var alarm = mustNew(
	Variable{
		ID:     "B",
		States: BinaryStates("B"),
		Prior:  map[string]float64{"+b": 0.001, "-b": 0.999},
	},
	Variable{
		ID:     "E",
		States: BinaryStates("E"),
		Prior:  map[string]float64{"+e": 0.002, "-e": 0.998},
	},
	Variable{
		ID:      "A",
		Parents: []string{"B", "E"},
		States:  BinaryStates("A"),
		Conditional: map[string]map[string]float64{
			"+a": {"+b+e": 0.95, "+b-e": 0.94, "-b+e": 0.29, "-b-e": 0.001},
			"-a": {"+b+e": 0.05, "+b-e": 0.06, "-b+e": 0.71, "-b-e": 0.999},
		},
	},
	Variable{
		ID:      "J",
		Parents: []string{"A"},
		States:  BinaryStates("J"),
		Conditional: map[string]map[string]float64{
			"+j": {"+a": 0.9, "-a": 0.05},
			"-j": {"+a": 0.1, "-a": 0.95},
		},
	},
	Variable{
		ID:      "M",
		Parents: []string{"A"},
		States:  BinaryStates("M"),
		Conditional: map[string]map[string]float64{
			"+m": {"+a": 0.7, "-a": 0.01},
			"-m": {"+a": 0.3, "-a": 0.99},
		},
	},
)

// Alarm returns the shared alarm network.
func Alarm() *Network {
	return alarm
}

func mustNew(defs ...Variable) *Network {
	n, err := New(defs...)
	if err != nil {
		panic(err)
	}
	return n
}

// #endregion alarm
