package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/quill/pkg/cli"
	"mercator-hq/quill/pkg/sigv4"
)

// Environment variables holding the signing key pair.
const (
	envAccessKeyID     = "QUILL_AWS_ACCESS_KEY_ID"
	envSecretAccessKey = "QUILL_AWS_SECRET_ACCESS_KEY"
)

var signFlags struct {
	method   string
	url      string
	body     string
	bodyFile string
	region   string
	service  string
	time     string
	format   string
}

var signCmd = &cobra.Command{
	Use:   "sign",
	Short: "Compute SigV4 headers for a request",
	Long: `Compute the X-Amz-Date and Authorization headers for one request.

Credentials are read from QUILL_AWS_ACCESS_KEY_ID and
QUILL_AWS_SECRET_ACCESS_KEY. The caller must send
Content-Type: application/json, which is part of the signature.

Examples:
  quill sign --url https://bedrock-runtime.us-east-1.amazonaws.com/model/x/invoke --body '{}'

  # Reproduce a signature at a fixed time
  quill sign --url ... --body-file req.json --time 20150830T123600Z`,
	Args: cobra.NoArgs,
	RunE: signRequest,
}

func init() {
	rootCmd.AddCommand(signCmd)

	signCmd.Flags().StringVarP(&signFlags.method, "method", "X", "POST", "HTTP method")
	signCmd.Flags().StringVar(&signFlags.url, "url", "", "request URL (required)")
	signCmd.Flags().StringVar(&signFlags.body, "body", "", "request body")
	signCmd.Flags().StringVar(&signFlags.bodyFile, "body-file", "", "read request body from file (- for stdin)")
	signCmd.Flags().StringVar(&signFlags.region, "region", "us-east-1", "AWS region")
	signCmd.Flags().StringVar(&signFlags.service, "service", "bedrock", "AWS service name")
	signCmd.Flags().StringVar(&signFlags.time, "time", "", "signing time (RFC3339 or 20060102T150405Z, default now)")
	signCmd.Flags().StringVar(&signFlags.format, "format", "text", "output format: text, json")
	signCmd.MarkFlagsMutuallyExclusive("body", "body-file")
	_ = signCmd.MarkFlagRequired("url")
}

func signRequest(cmd *cobra.Command, args []string) error {
	u, err := url.Parse(signFlags.url)
	if err != nil || u.Host == "" {
		return cli.NewConfigError("url", fmt.Sprintf("invalid request URL %q", signFlags.url))
	}

	signingTime, err := parseSigningTime(signFlags.time)
	if err != nil {
		return cli.NewConfigError("time", err.Error())
	}

	format, err := cli.ParseFormat(signFlags.format)
	if err != nil || format == cli.FormatCSV {
		return cli.NewConfigError("format", fmt.Sprintf("unsupported output format %q", signFlags.format))
	}

	body, err := readBody(cmd.InOrStdin())
	if err != nil {
		return cli.NewCommandError("sign", err)
	}

	creds := sigv4.Credentials{
		AccessKeyID:     os.Getenv(envAccessKeyID),
		SecretAccessKey: os.Getenv(envSecretAccessKey),
	}
	if err := creds.Validate(); err != nil {
		return cli.NewConfigError(envAccessKeyID+"/"+envSecretAccessKey, err.Error())
	}

	secret := []byte(creds.SecretAccessKey)
	headers := sigv4.Sign(sigv4.Request{
		Method:      strings.ToUpper(signFlags.method),
		URL:         u,
		Body:        body,
		AccessKeyID: creds.AccessKeyID,
		SecretKey:   secret,
		Region:      signFlags.region,
		Service:     signFlags.service,
		Time:        signingTime,
	})
	clear(secret)

	out := cmd.OutOrStdout()
	if format == cli.FormatJSON {
		return cli.NewFormatter(cli.FormatJSON).FormatTo(out, headers)
	}
	fmt.Fprintf(out, "%s: %s\n", sigv4.HeaderDate, headers.Date())
	fmt.Fprintf(out, "%s: %s\n", sigv4.HeaderAuthorization, headers.Authorization())
	return nil
}

func readBody(stdin io.Reader) ([]byte, error) {
	switch signFlags.bodyFile {
	case "":
		return []byte(signFlags.body), nil
	case "-":
		return io.ReadAll(stdin)
	default:
		return os.ReadFile(signFlags.bodyFile)
	}
}

// parseSigningTime accepts the X-Amz-Date layout or RFC3339. Empty means
// now, which sigv4.Sign resolves itself.
func parseSigningTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(sigv4.TimeFormat, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, errors.New("time must be RFC3339 or 20060102T150405Z")
	}
	return t.UTC(), nil
}
