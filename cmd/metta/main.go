// Command metta evaluates programs against a symbolic knowledge base. It
// can run program files, evaluate single expressions, or serve a plain
// line-based REPL.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/amebel/metta-go/pkg/atom"
	"github.com/amebel/metta-go/pkg/env"
	"github.com/amebel/metta-go/pkg/metta"
)

var (
	flagWorkingDir   string
	flagConfigDir    string
	flagNoConfigDir  bool
	flagIncludePaths []string
	flagVerbose      bool
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "metta",
		Short: "Symbolic knowledge base and rewriting interpreter",
		RunE: func(cmd *cobra.Command, args []string) error {
			return repl(newRunner())
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&flagWorkingDir, "working-dir", "", "directory for relative module references")
	pf.StringVar(&flagConfigDir, "config-dir", "", "directory for persistent settings")
	pf.BoolVar(&flagNoConfigDir, "no-config-dir", false, "neither read nor create a config directory")
	pf.StringArrayVar(&flagIncludePaths, "include-path", nil, "additional module search root (repeatable)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "run <file>",
		Short: "Run a program file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			results, err := newRunner().RunString(string(data))
			if err != nil {
				return err
			}
			printResults(results)
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "eval <expr>",
		Short: "Evaluate a single expression",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := "!" + strings.Join(args, " ")
			results, err := newRunner().RunString(src)
			if err != nil {
				return err
			}
			printResults(results)
			return nil
		},
	})
	cobra.OnInitialize(initEnvironment)
	return root
}

// initEnvironment drives the one-shot platform environment lifecycle from
// the persistent flags.
func initEnvironment() {
	b := env.InitStart()
	if flagWorkingDir != "" {
		b.SetWorkingDir(flagWorkingDir)
	} else if wd, err := os.Getwd(); err == nil {
		b.SetWorkingDir(wd)
	}
	if flagNoConfigDir {
		b.NoConfigDir()
	} else if flagConfigDir != "" {
		b.SetConfigDir(flagConfigDir)
	}
	for _, p := range flagIncludePaths {
		b.AddIncludePath(p)
	}
	if err := b.InitFinish(); err != nil {
		fmt.Fprintln(os.Stderr, "warning:", err)
	}
}

func newRunner() *metta.Runner {
	log := zap.NewNop()
	if flagVerbose {
		dev, err := zap.NewDevelopment()
		if err == nil {
			log = dev
		}
	}
	return metta.NewRunner(metta.WithLogger(log))
}

func printResults(results [][]atom.Atom) {
	for _, group := range results {
		parts := make([]string, len(group))
		for i, a := range group {
			parts[i] = a.String()
		}
		fmt.Printf("[%s]\n", strings.Join(parts, ", "))
	}
}

// repl reads expressions line by line. Evaluation-marked expressions print
// their results; everything else lands in the space.
func repl(r *metta.Runner) error {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			results, err := r.RunString(line)
			if err != nil {
				fmt.Fprintln(os.Stderr, "error:", err)
			} else {
				printResults(results)
			}
		}
		fmt.Print("> ")
	}
	fmt.Println()
	return scanner.Err()
}
