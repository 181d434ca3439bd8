package main

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/coinbase/cb-hazmat-go/pkg/hazmat"
	"github.com/coinbase/cb-hazmat-go/pkg/hazmat/logging"
	"github.com/coinbase/cb-hazmat-go/pkg/hazmat/ocsp"
	"github.com/coinbase/cb-hazmat-go/pkg/hazmat/rsa"
)

const usage = `usage: hazmat-go [-config file] <command> [args]

commands:
  version                          print the build version
  genrsa [-bits n] [-e exp]        generate a key and print its public numbers
  ocsp-request <file>              decode a DER OCSP request
  ocsp-response -issuer <pem> <file>
                                   verify and decode a DER OCSP response`

func main() {
	configPath := flag.String("config", "", "YAML configuration file")
	flag.Usage = func() { fmt.Fprintln(os.Stderr, usage) }
	flag.Parse()

	cfg := hazmat.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = hazmat.LoadConfig(*configPath); err != nil {
			log.Fatalf("load config: %v", err)
		}
	}
	level, err := cfg.Log.SlogLevel()
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	logger := logging.NewSlog(os.Stderr, cfg.Log.Format, level)
	slog.SetDefault(logger)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	switch args[0] {
	case "version":
		fmt.Printf("hazmat-go version: %s\n", hazmat.WrapperVersion())
	case "genrsa":
		err = runGenRSA(ctx, cfg, logger, args[1:])
	case "ocsp-request":
		err = runOCSPRequest(args[1:])
	case "ocsp-response":
		err = runOCSPResponse(args[1:])
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		logger.Error("command failed", "command", args[0], "kind", kindName(err), "error", err)
		os.Exit(1)
	}
}

func kindName(err error) string {
	if kind := hazmat.KindOf(err); kind != nil {
		return kind.Error()
	}
	return "unknown"
}

func runGenRSA(ctx context.Context, cfg hazmat.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("genrsa", flag.ContinueOnError)
	bits := fs.Int("bits", cfg.RSA.DefaultKeySize, "modulus size in bits")
	exp := fs.Int("e", cfg.RSA.DefaultPublicExponent, "public exponent")
	if err := fs.Parse(args); err != nil {
		return err
	}

	gen := rsa.Generator{Logger: logging.New(logger), MinKeySize: cfg.RSA.MinKeySize}
	key, err := gen.Generate(ctx, *exp, *bits)
	if err != nil {
		return err
	}
	defer key.Destroy()

	pub := key.Public().PublicNumbers()
	fmt.Printf("key size: %d\n", key.KeySize())
	fmt.Printf("e: %s\n", pub.E.Text(10))
	fmt.Printf("n: %s\n", pub.N.Text(16))
	return nil
}

func runOCSPRequest(args []string) error {
	if len(args) != 1 {
		return errors.New("ocsp-request takes exactly one file")
	}
	der, err := readFile(args[0])
	if err != nil {
		return err
	}
	req, err := ocsp.LoadDERRequest(der)
	if err != nil {
		return err
	}

	fmt.Printf("version: %d\n", req.Version()+1)
	fmt.Printf("signed: %t\n", req.IsSigned())
	for i, id := range req.CertIDs() {
		fmt.Printf("request %d: hash=%s serial=%s\n", i, id.HashAlgorithm, id.SerialNumber.Text(16))
	}
	printExtensions("requestExtensions", req.Extensions())
	return nil
}

func runOCSPResponse(args []string) error {
	fs := flag.NewFlagSet("ocsp-response", flag.ContinueOnError)
	issuerPath := fs.String("issuer", "", "PEM issuer certificate")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *issuerPath == "" || fs.NArg() != 1 {
		return errors.New("ocsp-response needs -issuer and exactly one file")
	}

	issuer, err := readCertificate(*issuerPath)
	if err != nil {
		return err
	}
	der, err := readFile(fs.Arg(0))
	if err != nil {
		return err
	}
	resp, err := ocsp.ParseResponse(der, issuer)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s\n", statusName(resp.Status))
	fmt.Printf("serial: %s\n", resp.SerialNumber.Text(16))
	fmt.Printf("this update: %s\n", resp.ThisUpdate)
	if !resp.NextUpdate.IsZero() {
		fmt.Printf("next update: %s\n", resp.NextUpdate)
	}
	printExtensions("singleExtensions", resp.SingleExtensions)
	printExtensions("responseExtensions", resp.ResponseExtensions)
	return nil
}

func statusName(status int) string {
	switch status {
	case 0:
		return "good"
	case 1:
		return "revoked"
	case 2:
		return "unknown"
	default:
		return fmt.Sprintf("status(%d)", status)
	}
}

func printExtensions(label string, exts []ocsp.Extension) {
	for _, ext := range exts {
		fmt.Printf("%s: %s critical=%t %T\n", label, ext.ID, ext.Critical, ext.Value)
	}
}

func readFile(path string) ([]byte, error) {
	absPath, err := hazmat.SecurePath(path)
	if err != nil {
		return nil, fmt.Errorf("secure path: %w", err)
	}
	data, err := os.ReadFile(absPath) // #nosec G304 -- absPath validated by SecurePath
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return data, nil
}

func readCertificate(path string) (*x509.Certificate, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	block, _ := pem.Decode(data)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("issuer file holds no PEM certificate")
	}
	return x509.ParseCertificate(block.Bytes)
}
