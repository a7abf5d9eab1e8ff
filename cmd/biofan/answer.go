package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/henrybloomingdale/biofan/internal/answer"
	"github.com/henrybloomingdale/biofan/internal/output"
	"github.com/henrybloomingdale/biofan/internal/rank"
)

var (
	answerFlagGenes    []string
	answerFlagDrugs    []string
	answerFlagDiseases []string
)

func init() {
	f := answerCmd.Flags()
	f.StringSliceVarP(&answerFlagGenes, "gene", "g", nil, "Known gene symbol (repeatable or comma-separated)")
	f.StringSliceVarP(&answerFlagDrugs, "drug", "d", nil, "Known drug name (repeatable or comma-separated)")
	f.StringSliceVar(&answerFlagDiseases, "disease", nil, "Known disease (repeatable or comma-separated)")
}

var answerCmd = &cobra.Command{
	Use:   "answer [question]",
	Short: "Build a ranked answer card for a biomedical question",
	Long: `Query literature, trial and protein sources concurrently and rank the
results by evidence strength and relevance to the question.

NCT ids, trial phases and variants are picked up from the question text;
genes, drugs and diseases can be supplied as flags.

Examples:
  biofan answer "osimertinib resistance in EGFR T790M NSCLC" -g EGFR -d osimertinib
  biofan answer --gene KRAS --disease "pancreatic cancer" --human`,
	RunE: runAnswer,
}

func answerRequest(args []string) answer.Request {
	return answer.Request{
		Question: strings.TrimSpace(strings.Join(args, " ")),
		Slots: rank.Slots{
			Genes:    splitList(answerFlagGenes),
			Drugs:    splitList(answerFlagDrugs),
			Diseases: splitList(answerFlagDiseases),
		},
	}
}

func runAnswer(cmd *cobra.Command, args []string) error {
	req := answerRequest(args)
	if len(answer.Plan(req)) == 0 {
		return answer.ErrEmptyRequest
	}

	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	e := a.engine()
	if interactive() {
		e = e.WithProgress(func(u answer.ProgressUpdate) {
			fmt.Fprintf(os.Stderr, "  %s\n", u.Message)
		})
	}

	card, err := e.Answer(cmd.Context(), req)
	if err != nil {
		return fmt.Errorf("answer failed: %w", err)
	}
	a.metrics.ObserveRun("answer", len(card.Calls), card.Failures)
	return output.FormatCard(os.Stdout, card, outputCfg())
}
