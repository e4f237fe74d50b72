package launcher

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Banner prints the start-up header with the number of accounts.
func Banner(w io.Writer, accounts int) {
	_, _ = color.New(color.FgGreen).Fprint(w, "presencekeeper ")
	_, _ = color.New(color.FgCyan).Fprint(w, "[Multiple Accounts] ")
	_, _ = color.New(color.FgRed).Fprintf(w, "Total Accounts: %d", accounts)
	_, _ = fmt.Fprintln(w)
}
