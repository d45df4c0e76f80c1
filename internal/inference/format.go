package inference

import (
	"fmt"
	"strings"

	"github.com/danielpatrickdp/alarm-inference/go-controller/internal/network"
)

// #region format
// FormatLines renders one "P(B = +b | J = +j) = 0.016" line per state of the
// query variable, in declared state order.
func FormatLines(net *network.Network, query string, evidence Evidence, dist Distribution) []string {
	given := ""
	if len(evidence) > 0 {
		parts := make([]string, 0, len(evidence))
		for _, v := range sortedKeys(evidence) {
			parts = append(parts, fmt.Sprintf("%s = %s", v, evidence[v]))
		}
		given = " | " + strings.Join(parts, ", ")
	}

	states := net.States(query)
	lines := make([]string, 0, len(states))
	for _, s := range states {
		lines = append(lines, fmt.Sprintf("P(%s = %s%s) = %.3f", query, s, given, dist[s]))
	}
	return lines
}

// #endregion format
