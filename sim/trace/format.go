package trace

import (
	"fmt"
	"io"
)

// WriteText renders st as one line per round, each followed by the reactions
// that ran in it (when recorded). The output is deterministic for a
// deterministic run and is used for golden-file comparisons.
func WriteText(w io.Writer, st *SimulationTrace) error {
	if st == nil {
		return nil
	}
	j := 0
	for _, round := range st.Rounds {
		if _, err := fmt.Fprintf(w, "round t=%d m=%d events=%d reactions=%d released=%d\n",
			round.Elapsed, round.Microstep, round.Events, round.Reactions, round.PayloadsReleased); err != nil {
			return err
		}
		for ; j < len(st.Reactions) && st.Reactions[j].SameTag(round); j++ {
			rec := st.Reactions[j]
			flags := ""
			if rec.Handler {
				flags += " handler"
			}
			if rec.DeadlineMissed {
				flags += " missed"
			}
			if _, err := fmt.Fprintf(w, "  %s#%d%s\n", rec.Reaction, rec.Priority, flags); err != nil {
				return err
			}
		}
	}
	return nil
}
