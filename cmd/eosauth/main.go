package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/cambiatus/eosauth/internal/config"
	"github.com/cambiatus/eosauth/pkg/log"
)

const privateKeyEnv = "EOSAUTH_PRIVATE_KEY"

const usage = `usage: eosauth <command> [flags]

commands:
  keygen                       generate a key pair
  sign -message <msg>          sign with the key in ` + privateKeyEnv + `
  recover -message -signature  recover the signing public key
  points -message -signature   recover the key as curve points
  verify -message -signature -key
  account <name>               resolve the keys of an account
  key-accounts <public key>    list the accounts a key belongs to
  login <name>                 sign in as an account with ` + privateKeyEnv + `
  watch <name> [-interval]     report key changes of an account
`

func main() {
	logConf, err := config.LoadLogConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := log.NewZapLogger(logConf).WithName("eosauth")

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runCli(ctx, logger, os.Args[1], os.Args[2:], os.Stdout); err != nil {
		logger.Fatal("command failed", "command", os.Args[1], "error", err)
	}
}

func runCli(ctx context.Context, logger log.Logger, name string, args []string, out io.Writer) error {
	logger = logger.WithKV("command", name)

	switch name {
	case "keygen":
		return runKeygenCli(args, out)
	case "sign":
		return runSignCli(args, out)
	case "recover":
		return runRecoverCli(args, out)
	case "points":
		return runPointsCli(args, out)
	case "verify":
		return runVerifyCli(args, out)
	case "account":
		return runAccountCli(ctx, logger, args, out)
	case "key-accounts":
		return runKeyAccountsCli(ctx, logger, args, out)
	case "login":
		return runLoginCli(ctx, logger, args, out)
	case "watch":
		return runWatchCli(ctx, logger, args, out)
	case "help", "-h", "--help":
		_, err := fmt.Fprint(out, usage)
		return err
	default:
		return fmt.Errorf("unknown command %q", name)
	}
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
