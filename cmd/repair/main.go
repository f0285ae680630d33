// Command repair runs a raw model completion through the repair pipeline and, optionally, one
// call-site post-processor. It reads stdin unless -file is given.
//
//	repair -normalize review < completion.txt
package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yungbote/codepath-backend/internal/learning/chat"
	"github.com/yungbote/codepath-backend/internal/learning/exercise"
	"github.com/yungbote/codepath-backend/internal/learning/insights"
	"github.com/yungbote/codepath-backend/internal/learning/review"
	"github.com/yungbote/codepath-backend/internal/learning/roadmap"
	"github.com/yungbote/codepath-backend/internal/structured/jsonvalue"
	"github.com/yungbote/codepath-backend/internal/structured/repair"
)

var normalizers = map[string]func(jsonvalue.Value) (any, error){
	exercise.CallSite: func(v jsonvalue.Value) (any, error) { return exercise.Normalize(v) },
	review.CallSite:   func(v jsonvalue.Value) (any, error) { return review.Normalize(v), nil },
	roadmap.CallSite:  func(v jsonvalue.Value) (any, error) { return roadmap.Normalize(v) },
	insights.CallSite: func(v jsonvalue.Value) (any, error) { return insights.Normalize(v), nil },
	chat.CallSite:     func(v jsonvalue.Value) (any, error) { return chat.Normalize(v) },
}

type output struct {
	Pass   string          `json:"pass"`
	Value  jsonvalue.Value `json:"value"`
	Result any             `json:"result,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "repair: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("repair", flag.ContinueOnError)
	fs.SetOutput(stderr)
	file := fs.String("file", "", "read the completion from this file instead of stdin")
	site := fs.String("normalize", "", "post-process as exercise|review|roadmap|insights|chat")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var normalize func(jsonvalue.Value) (any, error)
	if name := strings.TrimSpace(*site); name != "" {
		var ok bool
		if normalize, ok = normalizers[name]; !ok {
			return fmt.Errorf("unknown call site %q", name)
		}
	}

	in := stdin
	if *file != "" {
		f, err := os.Open(*file)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}
	raw, err := io.ReadAll(in)
	if err != nil {
		return err
	}

	res, err := repair.Repair(string(raw))
	if err != nil {
		var ure *repair.UnrepairableResponseError
		if errors.As(err, &ure) {
			for _, cause := range ure.Causes {
				fmt.Fprintf(stderr, "  %v\n", cause)
			}
		}
		return err
	}

	out := output{Pass: res.Pass.String(), Value: res.Value}
	if normalize != nil {
		if out.Result, err = normalize(res.Value); err != nil {
			return err
		}
	}
	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
