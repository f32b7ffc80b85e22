package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ucanengine/core/capability"
	"github.com/ucanengine/core/core/delegation"
	"github.com/ucanengine/core/core/result"
	"github.com/ucanengine/core/core/schema"
	"github.com/ucanengine/core/principal/ed25519"
	"github.com/ucanengine/core/ucan"
	"github.com/ucanengine/core/validator"
)

var (
	verifyAuthority string
	verifyCan       string
	verifyProofs    []string
)

var verifyCmd = &cobra.Command{
	Use:   "verify [invocation archive]",
	Short: "Check that an invocation's claimed capability is authorized",
	Args:  cobra.MaximumNArgs(1),
	RunE:  doVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyAuthority, "authority", "", "did:key the invocation must be addressed to")
	verifyCmd.Flags().StringVar(&verifyCan, "can", "", "ability the invocation must claim, e.g. \"store/add\"")
	verifyCmd.Flags().StringSliceVar(&verifyProofs, "proof", nil, "base64 archive of an additional proof to make resolvable (repeatable)")
	cobra.CheckErr(verifyCmd.MarkFlagRequired("authority"))
	cobra.CheckErr(verifyCmd.MarkFlagRequired("can"))
}

func doVerify(cmd *cobra.Command, args []string) error {
	var encoded string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading invocation file: %w", err)
		}
		encoded = strings.TrimSpace(string(data))
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading invocation from stdin: %w", err)
		}
		encoded = strings.TrimSpace(string(data))
	}
	invocation, err := delegation.Parse(encoded)
	if err != nil {
		return fmt.Errorf("parsing invocation: %w", err)
	}
	for _, src := range capability.Sources(invocation) {
		log.Debugw("invocation claims capability", "can", src.Capability.Can(), "with", src.Capability.With())
	}

	authority, err := ed25519.Parse(verifyAuthority)
	if err != nil {
		return fmt.Errorf("parsing authority: %w", err)
	}

	extraProofs := make([]delegation.Delegation, 0, len(verifyProofs))
	for _, p := range verifyProofs {
		dlg, err := delegation.Parse(p)
		if err != nil {
			return fmt.Errorf("parsing --proof: %w", err)
		}
		extraProofs = append(extraProofs, dlg)
	}

	desc := capability.NewDescriptor[ucan.NoCaveats](
		verifyCan,
		schema.DIDString(),
		schema.Mapped(schema.Any(), func(any) (ucan.NoCaveats, error) { return ucan.NoCaveats{}, nil }),
		nil,
	)
	vctx := validator.NewValidationContext[ucan.NoCaveats](
		authority, desc, nil, nil, nil, nil, validator.DefaultPrincipalResolver(), extraProofs...,
	)
	claimCtx := validator.NewClaimContext(ucan.Now())

	res := validator.Access[ucan.NoCaveats](claimCtx, invocation, vctx)
	auth, failure := result.Unwrap(res)
	if failure != nil {
		log.Debugw("invocation rejected", "error", failure.Error())
		return fmt.Errorf("not authorized: %w", failure)
	}
	cmd.Printf("authorized %q with %q through %d proof(s)\n", auth.Capability.Can(), auth.Capability.With(), len(auth.Proofs))
	cmd.Println(validator.ProofTrace(auth))
	return nil
}
