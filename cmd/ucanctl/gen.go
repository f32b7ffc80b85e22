package main

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/principal/ed25519"
	"github.com/ucanengine/core/ucan"
)

var (
	genIssuerSeed string
	genAudience   string
	genCan        string
	genWith       string
	genExpires    uint64
)

var genCmd = &cobra.Command{
	Use:   "gen",
	Short: "Sign a new delegation and print its archive",
	Args:  cobra.NoArgs,
	RunE:  doGen,
}

func init() {
	genCmd.Flags().StringVar(&genIssuerSeed, "issuer", "", "hex-encoded 32-byte ed25519 seed for the issuer")
	genCmd.Flags().StringVar(&genAudience, "audience", "", "did:key of the delegation's audience")
	genCmd.Flags().StringVar(&genCan, "can", "", "ability granted, e.g. \"store/add\" or \"*\"")
	genCmd.Flags().StringVar(&genWith, "with", "", "resource the ability is granted over, or \"ucan:*\" to re-delegate")
	genCmd.Flags().Uint64Var(&genExpires, "expires", 0, "expiration as seconds since epoch (0 keeps the default one-hour validity)")
	cobra.CheckErr(genCmd.MarkFlagRequired("issuer"))
	cobra.CheckErr(genCmd.MarkFlagRequired("audience"))
	cobra.CheckErr(genCmd.MarkFlagRequired("can"))
	cobra.CheckErr(genCmd.MarkFlagRequired("with"))
}

func doGen(cmd *cobra.Command, _ []string) error {
	seed, err := hex.DecodeString(genIssuerSeed)
	if err != nil {
		return fmt.Errorf("decoding issuer seed: %w", err)
	}
	issuer, err := ed25519.FromSeed(seed)
	if err != nil {
		return fmt.Errorf("building issuer signer: %w", err)
	}
	audience, err := ed25519.Parse(genAudience)
	if err != nil {
		return fmt.Errorf("parsing audience: %w", err)
	}

	var opts []delegation.Option
	if genExpires > 0 {
		opts = append(opts, delegation.WithExpiration(genExpires))
	}

	dlg, err := delegation.DelegateCapability(issuer, audience, genCan, genWith, ucan.NoCaveats{}, opts...)
	if err != nil {
		return fmt.Errorf("building delegation: %w", err)
	}

	archived, err := io.ReadAll(dlg.Archive())
	if err != nil {
		return fmt.Errorf("archiving delegation: %w", err)
	}
	log.Debugw("generated delegation", "link", dlg.Link().String(), "issuer", issuer.DID().String(), "audience", audience.DID().String())
	cmd.Println(base64.StdEncoding.EncodeToString(archived))
	return nil
}
