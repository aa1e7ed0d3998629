// Command batchrun loads a batch of transactions from a JSON file and runs
// it through the batch executor, printing the synthesized return-sets to
// stdout. It wires the no-op VM collaborator (core/execution/noop) rather
// than a real smart-contract VM, which is explicitly outside the scope of
// this module; its purpose is to exercise and smoke-test the executor
// pipeline end to end.
package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.chainforge.dev/executor"
	"go.chainforge.dev/executor/core/batch"
	"go.chainforge.dev/executor/core/events"
	"go.chainforge.dev/executor/core/execution/noop"
	"go.chainforge.dev/executor/core/store/kv"
	"go.chainforge.dev/executor/core/store/resultstore"
	"go.chainforge.dev/executor/core/txexec"
	"go.chainforge.dev/executor/core/txn"
	"go.chainforge.dev/executor/tracing"
	"golang.org/x/xerrors"
)

func main() {
	app := &cli.App{
		Name:  "batchrun",
		Usage: "run a batch of transactions through the transaction executor",
		Commands: []*cli.Command{
			runCommand(),
			metricsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "execute a batch described by a JSON file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "input", Required: true, Usage: "path to the batch request JSON file"},
			&cli.StringFlag{Name: "db", Value: "batchrun.db", Usage: "path to the bbolt result store"},
			&cli.BoolFlag{Name: "trace", Usage: "emit an opentracing span per batch and transaction"},
			&cli.BoolFlag{Name: "debug", Usage: "publish a transaction-executed event for every executed transaction"},
			&cli.BoolFlag{Name: "throw-exceptions", Usage: "log transaction-level errors verbosely instead of at debug level"},
		},
		Action: func(c *cli.Context) error {
			req, err := loadRequest(c.String("input"))
			if err != nil {
				return err
			}

			db, err := kv.New(c.String("db"))
			if err != nil {
				return xerrors.Errorf("failed to open result store: %v", err)
			}
			defer db.Close()

			store := resultstore.NewStore(db)

			sink := events.NewWatcher()
			sink.Add(loggingObserver{})

			exec := txexec.New(noop.New(), nil, nil, sink, c.Bool("debug"))
			runner := batch.New(exec, store)

			if c.Bool("trace") {
				tracer, err := tracing.ForService("batchrun")
				if err != nil {
					return xerrors.Errorf("failed to create tracer: %v", err)
				}

				runner = runner.WithTracer(tracer)
			}

			returnSets, err := runner.Execute(context.Background(), *req, c.Bool("throw-exceptions"))
			if err != nil {
				return xerrors.Errorf("batch execution failed: %v", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")

			return enc.Encode(returnSets)
		},
	}
}

func metricsCommand() *cli.Command {
	return &cli.Command{
		Name:  "register-metrics",
		Usage: "register this module's prometheus collectors against the default registerer",
		Action: func(c *cli.Context) error {
			for _, collector := range executor.PromCollectors {
				if err := prometheus.DefaultRegisterer.Register(collector); err != nil {
					return xerrors.Errorf("failed to register collector: %v", err)
				}
			}

			return nil
		},
	}
}

// loggingObserver logs every transaction-executed event at debug level. It is
// the one subscriber this command wires up by default; a deployment wanting
// a metrics exporter or an audit log instead would add its own observer to
// the same events.Watcher.
type loggingObserver struct{}

func (loggingObserver) NotifyCallback(event txexec.TransactionExecutedEvent) {
	executor.Logger.Debug().
		Str("transactionId", txn.Address(event.Trace.TransactionID).String()).
		Str("status", event.Trace.ExecutionStatus.String()).
		Msg("transaction executed")
}

// requestFile is the on-disk JSON shape of a batch.Request: addresses and
// payloads are hex-encoded since raw bytes do not round-trip through JSON
// strings.
type requestFile struct {
	Header struct {
		PreviousBlockHash string `json:"previousBlockHash"`
		Height            int64  `json:"height"`
		Time              string `json:"time"`
	} `json:"header"`
	PartialState map[string]string `json:"partialState"`
	Transactions []struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Method  string `json:"method"`
		Payload string `json:"payload"`
	} `json:"transactions"`
}

func loadRequest(path string) (*batch.Request, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Errorf("failed to read %s: %v", path, err)
	}

	var rf requestFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, xerrors.Errorf("failed to parse %s: %v", path, err)
	}

	previousBlockHash, err := hex.DecodeString(rf.Header.PreviousBlockHash)
	if err != nil {
		return nil, xerrors.Errorf("invalid previousBlockHash: %v", err)
	}

	blockTime := time.Now()
	if rf.Header.Time != "" {
		blockTime, err = time.Parse(time.RFC3339, rf.Header.Time)
		if err != nil {
			return nil, xerrors.Errorf("invalid block time: %v", err)
		}
	}

	req := &batch.Request{
		Header: batch.Header{
			PreviousBlockHash: previousBlockHash,
			Height:            rf.Header.Height,
			Time:              blockTime,
		},
	}

	if rf.PartialState != nil {
		req.PartialState = make(map[string][]byte, len(rf.PartialState))

		for k, v := range rf.PartialState {
			value, err := hex.DecodeString(v)
			if err != nil {
				return nil, xerrors.Errorf("invalid partialState value for %q: %v", k, err)
			}

			req.PartialState[k] = value
		}
	}

	for _, t := range rf.Transactions {
		from, err := hex.DecodeString(t.From)
		if err != nil {
			return nil, xerrors.Errorf("invalid from address: %v", err)
		}

		to, err := hex.DecodeString(t.To)
		if err != nil {
			return nil, xerrors.Errorf("invalid to address: %v", err)
		}

		payload, err := hex.DecodeString(t.Payload)
		if err != nil {
			return nil, xerrors.Errorf("invalid payload: %v", err)
		}

		req.Transactions = append(req.Transactions, txn.New(txn.Address(from), txn.Address(to), t.Method, payload))
	}

	return req, nil
}
