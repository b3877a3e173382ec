package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/telekom/cogauth/pkg/auth"
	"github.com/telekom/cogauth/pkg/config"
)

func WriteProfileTable(w io.Writer, profiles []config.Profile, current string) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CURRENT\tNAME\tMETHOD\tCLOUD\tTENANT")
	for _, p := range profiles {
		marker := ""
		if p.Name == current {
			marker = "*"
		}
		cloudName := p.Cloud
		if cloudName == "" {
			cloudName = "global"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", marker, p.Name, p.Method, cloudName, dash(p.TenantID))
	}
	_ = tw.Flush()
}

func WriteClaimsTable(w io.Writer, claims *auth.TokenClaims) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	expires := "-"
	if !claims.ExpiresAt.IsZero() {
		expires = formatTime(claims.ExpiresAt)
		if claims.Expired {
			expires += " (expired)"
		}
	}
	_, _ = fmt.Fprintf(tw, "USER:\t%s\n", dash(claims.User))
	_, _ = fmt.Fprintf(tw, "SUBJECT:\t%s\n", dash(claims.Subject))
	_, _ = fmt.Fprintf(tw, "TENANT:\t%s\n", dash(claims.TenantID))
	_, _ = fmt.Fprintf(tw, "AUDIENCE:\t%s\n", dash(strings.Join(claims.Audience, ",")))
	_, _ = fmt.Fprintf(tw, "ISSUER:\t%s\n", dash(claims.Issuer))
	_, _ = fmt.Fprintf(tw, "EXPIRES:\t%s\n", expires)
	_ = tw.Flush()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
