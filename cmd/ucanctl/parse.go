package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ucanengine/core/core/delegation"
)

var parseCmd = &cobra.Command{
	Use:   "parse [archive]",
	Short: "Parse a base64 delegation archive and render its proof chain",
	Args:  cobra.MaximumNArgs(1),
	RunE:  doParse,
}

func doParse(cmd *cobra.Command, args []string) error {
	var encoded string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading archive file: %w", err)
		}
		encoded = strings.TrimSpace(string(data))
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading archive from stdin: %w", err)
		}
		encoded = strings.TrimSpace(string(data))
	}
	if encoded == "" {
		return fmt.Errorf("no archive provided via file or stdin")
	}

	dlg, err := delegation.Parse(encoded)
	if err != nil {
		return fmt.Errorf("parsing delegation: %w", err)
	}
	log.Debugw("parsed delegation", "link", dlg.Link().String())
	cmd.Println(formatDelegationAsTable(dlg, 0))
	return nil
}

// formatDelegationAsTable renders one delegation's fields as a table, with
// its capabilities and resolved proof chain nested inside as sub-tables,
// recursing through ResolvedProofs the way a reader would walk the chain
// by hand.
func formatDelegationAsTable(dlg delegation.Delegation, depth int) string {
	tableString := &strings.Builder{}
	table := tablewriter.NewWriter(tableString)
	table.SetHeader([]string{"Property", "Value"})
	table.SetAutoWrapText(true)
	table.SetRowLine(true)
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT})
	table.SetColWidth(60 - (depth * 2))

	table.Append([]string{"Link", dlg.Link().String()})
	table.Append([]string{"Issuer", dlg.Issuer().DID().String()})
	table.Append([]string{"Audience", dlg.Audience().DID().String()})
	table.Append([]string{"Version", dlg.Version()})
	table.Append([]string{"Nonce", dlg.Nonce()})
	if exp := dlg.Expiration(); exp != nil {
		table.Append([]string{"Expiration", strconv.FormatUint(*exp, 10) + fmt.Sprintf(" (%s)", time.Unix(int64(*exp), 0).UTC().Format(time.RFC822))})
	} else {
		table.Append([]string{"Expiration", "never"})
	}
	if nbf := dlg.NotBefore(); nbf != nil {
		table.Append([]string{"Not Before", strconv.FormatUint(*nbf, 10)})
	}

	table.Append([]string{"Capabilities", formatCapabilities(dlg.Capabilities(), depth)})
	table.Append([]string{"Facts", formatFacts(dlg.Facts(), depth)})

	if proofs := formatProofs(dlg.ResolvedProofs(), depth+1); proofs != "" {
		table.Append([]string{"Proofs", proofs})
	}

	table.Render()
	return tableString.String()
}

func formatCapabilities(caps []delegation.RawCapability, depth int) string {
	if len(caps) == 0 {
		return "None"
	}
	b := &strings.Builder{}
	t := tablewriter.NewWriter(b)
	t.SetHeader([]string{"#", "Can", "With"})
	t.SetAutoWrapText(true)
	t.SetRowLine(true)
	t.SetColWidth(50 - (depth * 2))
	for i, c := range caps {
		t.Append([]string{strconv.Itoa(i + 1), c.Can(), c.With()})
	}
	t.Render()
	return b.String()
}

func formatFacts(facts []map[string]any, depth int) string {
	if len(facts) == 0 {
		return "None"
	}
	b := &strings.Builder{}
	t := tablewriter.NewWriter(b)
	t.SetHeader([]string{"#", "Fact"})
	t.SetAutoWrapText(true)
	t.SetRowLine(true)
	t.SetColWidth(50 - (depth * 2))
	for i, f := range facts {
		keys := delegation.SortedFactKeys(f)
		parts := make([]string, len(keys))
		for j, k := range keys {
			parts[j] = fmt.Sprintf("%s: %v", k, f[k])
		}
		t.Append([]string{strconv.Itoa(i + 1), strings.Join(parts, "\n")})
	}
	t.Render()
	return b.String()
}

func formatProofs(proofs []delegation.Proof, depth int) string {
	if len(proofs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, p := range proofs {
		if i > 0 {
			b.WriteString("\n")
		}
		resolved, ok := p.Delegation()
		if !ok {
			fmt.Fprintf(&b, "\n=== Proof %d (unresolved) ===\n%s\n", i+1, p.Link().String())
			continue
		}
		fmt.Fprintf(&b, "\n=== Proof %d ===\n", i+1)
		b.WriteString(formatDelegationAsTable(resolved, depth))
	}
	return b.String()
}
