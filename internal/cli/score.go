package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mind-engage/neurocare/internal/assessment"
	"github.com/mind-engage/neurocare/internal/scoring"
)

var (
	scoreCatalog   string
	scoreAnswers   string
	scoreCondition string
	scoreTopN      int
	scoreJSON      bool
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score an answers file against a catalog file",
	Long: `score reads a catalog YAML and a JSON object of answers
({"0": "Strongly Agree", ...}) and prints the selected condition scores.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if scoreCatalog == "" || scoreAnswers == "" {
			return fmt.Errorf("--catalog and --answers are required")
		}
		cf, err := readCatalog(scoreCatalog)
		if err != nil {
			return err
		}
		answers, err := readAnswers(scoreAnswers)
		if err != nil {
			return err
		}
		engine := scoring.NewEngine(scoring.WithTopN(scoreTopN))
		if scoreCondition == "" {
			scoreCondition = engine.GeneralSelector()
		}
		res, err := scoreOffline(engine, cf, answers, scoreCondition)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if scoreJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		}
		renderScores(out, res, useColor(os.Stdout))
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCatalog, "catalog", "", "Catalog YAML file")
	scoreCmd.Flags().StringVar(&scoreAnswers, "answers", "", "Answers JSON file")
	scoreCmd.Flags().StringVar(&scoreCondition, "condition", "", "Target condition (default: rank all)")
	scoreCmd.Flags().IntVar(&scoreTopN, "top", 2, "How many conditions a ranking returns")
	scoreCmd.Flags().BoolVar(&scoreJSON, "json", false, "Output as JSON")
}

// scoreOffline validates the answers the way the service does and runs
// the engine over the catalog file.
func scoreOffline(engine *scoring.Engine, cf assessment.CatalogFile, answers map[string]string, condition string) (scoring.Result, error) {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	labels := make(map[string]scoring.Label, len(answers))
	for _, k := range keys {
		if !scoring.Valid(answers[k]) {
			return nil, &assessment.ValidationError{Field: "answers[" + k + "]", Reason: fmt.Sprintf("invalid answer value %q", answers[k])}
		}
		labels[k] = scoring.Label(answers[k])
	}
	conds := cf.ToConditions()
	views := make([]scoring.Condition, len(conds))
	for i, c := range conds {
		views[i] = c.ScoringView()
	}
	return engine.Evaluate(views, labels, condition)
}

func readCatalog(path string) (assessment.CatalogFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return assessment.CatalogFile{}, err
	}
	defer f.Close()
	return assessment.ParseCatalog(f)
}

func readAnswers(path string) (map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decodeAnswers(f)
}

func decodeAnswers(r io.Reader) (map[string]string, error) {
	var answers map[string]string
	if err := json.NewDecoder(r).Decode(&answers); err != nil {
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	return answers, nil
}
