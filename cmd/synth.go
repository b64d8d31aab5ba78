package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"gsynth/internal/synth"
	"gsynth/internal/tt"
)

var synthCommand = &cobra.Command{
	Use:   "synth [truth table]",
	Short: "synthesize a minimum-step chain for a truth table",
	Long:  ``,
	Args:  cobra.MaximumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		code := synthExec(args)
		if code != 0 {
			os.Exit(code)
		}
	},
}

var (
	nrInputs int
	useMaj   bool
	useAig   bool
	parallel int
	full     bool
	maxSteps int
	budgetMS int
	verbose  int
)

func init() {
	synthCommand.Flags().IntVar(&nrInputs, "inputs", 0, "number of input variables (inferred from hex width when omitted)")
	synthCommand.Flags().BoolVar(&useAig, "aig", false, "synthesize with two-input and-inverter gates (default)")
	synthCommand.Flags().BoolVar(&useMaj, "maj", false, "synthesize with ternary majority gates")
	synthCommand.Flags().IntVar(&parallel, "parallel", 0, "number of search workers; 0 runs sequentially")
	synthCommand.Flags().BoolVar(&full, "full", false, "exhaustive equivalence self-check over all functions of --inputs variables")
	synthCommand.Flags().IntVar(&maxSteps, "max-steps", 0, "abandon the search beyond this step count")
	synthCommand.Flags().IntVar(&budgetMS, "budget", 0, "per-solve budget in milliseconds; 0 is unlimited")
	synthCommand.Flags().IntVar(&verbose, "verbose", 0, "verbosity level")
}

func synthExec(args []string) int {
	if useMaj && useAig {
		fmt.Fprintln(os.Stderr, "at most one of --aig and --maj")
		return 2
	}
	prim := synth.AIG
	if useMaj {
		prim = synth.MAJ
	}

	if full {
		return fullCheck(prim)
	}
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one truth table argument")
		return 2
	}
	target, err := parseTable(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid truth table: %v\n", err)
		return 2
	}

	spec := &synth.Spec{
		NrIn:      target.NrVars(),
		Primitive: prim,
		Targets:   []tt.TT{target},
		MaxSteps:  maxSteps,
		Budget:    time.Duration(budgetMS) * time.Millisecond,
		Verbosity: verbose,
	}
	start := time.Now()
	var chain *synth.Chain
	if parallel > 0 {
		chain, err = synth.SynthesizeParallel(spec, parallel)
	} else {
		chain, err = synth.Synthesize(spec)
	}
	if err != nil {
		if errors.Is(err, synth.ErrInvalidSpec) {
			fmt.Fprintf(os.Stderr, "invalid input: %v\n", err)
			return 2
		}
		fmt.Fprintf(os.Stderr, "synthesis failed: %v\n", err)
		return 1
	}
	fmt.Printf("%d steps in %.3fs\n", chain.NrSteps(), time.Since(start).Seconds())
	fmt.Println(chain)
	return 0
}

// fullCheck synthesizes every function of nrInputs variables and
// verifies each chain simulates back to its target.
func fullCheck(prim synth.Primitive) int {
	n := nrInputs
	if n == 0 {
		n = 3
	}
	if n > 3 {
		fmt.Fprintln(os.Stderr, "--full supports at most 3 inputs")
		return 2
	}
	nrFuncs := uint64(1) << uint(1<<uint(n))
	for w := uint64(0); w < nrFuncs; w++ {
		target := tt.FromWords(n, w)
		spec := &synth.Spec{
			NrIn:      n,
			Primitive: prim,
			Targets:   []tt.TT{target},
			MaxSteps:  maxSteps,
			Budget:    time.Duration(budgetMS) * time.Millisecond,
		}
		var (
			chain *synth.Chain
			err   error
		)
		if parallel > 0 {
			chain, err = synth.SynthesizeParallel(spec, parallel)
		} else {
			chain, err = synth.Synthesize(spec)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "function %s: %v\n", target, err)
			return 1
		}
		if !chain.Simulate()[0].Equal(target) {
			fmt.Fprintf(os.Stderr, "function %s: chain does not match target\n", target)
			return 1
		}
		if w%32 == 0 {
			log.Infof("checked %d/%d functions", w, nrFuncs)
		}
	}
	fmt.Printf("all %d functions of %d inputs synthesized\n", nrFuncs, n)
	return 0
}

// parseTable reads a hex table (0x prefix or any hex letter) or a
// decimal table word. The variable count comes from --inputs or, when
// that is unset, from the hex digit count or, for a decimal word, the
// smallest count (at most 6) whose table holds the word.
func parseTable(s string) (tt.TT, error) {
	lower := strings.ToLower(s)
	isHex := strings.HasPrefix(lower, "0x") || strings.ContainsAny(lower, "abcdef")
	if isHex {
		digits := strings.TrimPrefix(lower, "0x")
		n := nrInputs
		if n == 0 {
			n = inferInputs(4 * len(digits))
		}
		return tt.FromHex(n, digits)
	}
	w, err := strconv.ParseUint(lower, 10, 64)
	if err != nil {
		return tt.TT{}, err
	}
	n := nrInputs
	if n == 0 {
		for n = 0; n < 6 && w >= uint64(1)<<uint(1<<uint(n)); n++ {
		}
	}
	return tt.FromWords(n, w), nil
}

// inferInputs maps a bit width to the smallest matching input count.
func inferInputs(nrBits int) int {
	n := 0
	for 1<<uint(n) < nrBits {
		n++
	}
	return n
}
