package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"rfpassist/internal/agent"
	"rfpassist/internal/domain"
	"rfpassist/internal/feedback"
	"rfpassist/internal/index"
	"rfpassist/internal/service"
	"rfpassist/internal/tui"
)

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "rfpassist",
		Short:         "Analyze RFP documents and draft proposals",
		Long:          "rfpassist extracts PDF and DOCX RFPs, runs analysis agents over them,\nanswers questions from processed documents and generates proposal drafts.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "path to YAML config (default ./config.yaml, then ~/.config/rfpassist/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newAnalyzeCmd(a),
		newIngestCmd(a),
		newListCmd(a),
		newAskCmd(a),
		newChatCmd(a),
		newGatherCmd(a),
		newProposalCmd(a),
		newFeedbackCmd(a),
	)
	return root
}

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		agentName string
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Run one analysis agent over an RFP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, err := agent.ParseName(agentName)
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			res, err := svc.Analyze(cmd.Context(), args[0], name)
			if errors.Is(err, domain.ErrInvalidOutput) && res.Output.Text != "" {
				cmd.PrintErrf("%s returned output that could not be parsed:\n%s\n", name.Title(), res.Output.Text)
			}
			if err != nil {
				return fmt.Errorf("%s failed: %w", name.Title(), err)
			}
			return printAnalysis(cmd, name, res, asJSON)
		},
	}
	cmd.Flags().StringVarP(&agentName, "agent", "a", string(agent.Summary), "agent: verdict, checklist, requirements, summary or risk")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print structured output as JSON")
	return cmd
}

func printAnalysis(cmd *cobra.Command, name agent.Name, res service.Analysis, asJSON bool) error {
	if res.Output.Empty {
		if res.Output.Blocked {
			cmd.Printf("%s: the model declined to answer (content policy).\n", name.Title())
		} else {
			cmd.Printf("%s: no output was produced.\n", name.Title())
		}
		return nil
	}
	switch {
	case asJSON && res.Verdict != nil:
		return printJSON(cmd, res.Verdict)
	case asJSON && res.Requirements != nil:
		return printJSON(cmd, res.Requirements)
	case asJSON:
		return printJSON(cmd, map[string]string{"agent": string(name), "output": res.Output.Text})
	}

	cmd.Println("## " + name.Title())
	cmd.Println()
	switch {
	case res.Verdict != nil:
		v := res.Verdict
		cmd.Printf("Verdict: %s\n\n%s\n", v.Verdict, v.Reasoning)
		printList(cmd, "Mandatory requirements", v.MandatoryRequirements)
		printList(cmd, "Met", v.MetMandatory)
		printList(cmd, "Missing", v.MissingMandatory)
		printList(cmd, "Optional requirements", v.OptionalRequirements)
		printList(cmd, "Optional met", v.MetOptional)
	case res.Requirements != nil:
		for _, r := range res.Requirements {
			cmd.Printf("- [%s] %s\n", r.Type, r.Requirement)
		}
	default:
		cmd.Println(res.Output.Text)
	}
	return nil
}

func printList(cmd *cobra.Command, title string, items []string) {
	if len(items) == 0 {
		return
	}
	cmd.Printf("\n%s:\n", title)
	for _, it := range items {
		cmd.Printf("  - %s\n", it)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Process RFP files into a searchable document",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			meta, err := svc.Ingest(cmd.Context(), args)
			if err != nil {
				return fmt.Errorf("processing failed: %w", err)
			}
			cmd.Printf("Processed %s as %s\n", meta.DocName, meta.Folder)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List processed documents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			docs, err := svc.Documents()
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				cmd.Println("No processed documents.")
				return nil
			}
			for _, d := range docs {
				cmd.Printf("%-40s %s\n", d.Folder, d.DocName)
				if d.Preview != "" {
					cmd.Printf("    %s\n", d.Preview)
				}
			}
			return nil
		},
	}
}

func newAskCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ask <folder_id> <question>",
		Short: "Answer a question from a processed document",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			out, err := svc.Ask(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			cmd.Println(out.String())
			return nil
		},
	}
}

func newChatCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "chat <folder_id>",
		Short: "Chat interactively with a processed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			docs, err := svc.Documents()
			if err != nil {
				return err
			}
			i := slices.IndexFunc(docs, func(d index.Metadata) bool { return d.Folder == args[0] })
			if i < 0 {
				return fmt.Errorf("%w: %q", domain.ErrIndexNotFound, args[0])
			}
			m := tui.New(cmd.Context(), svc, docs[i])
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

func newGatherCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "gather <folder_id>",
		Short: "Print the proposal sections found in a processed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			return printJSON(cmd, svc.Gather(cmd.Context(), args[0]))
		},
	}
}

func newProposalCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "proposal <folder_id>",
		Short: "Generate a proposal draft from a processed document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true)
			if err != nil {
				return err
			}
			path, err := svc.GenerateProposal(cmd.Context(), args[0], out)
			if err != nil {
				return fmt.Errorf("proposal generation failed: %w", err)
			}
			cmd.Printf("Proposal written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", service.DefaultProposalName, "output file name")
	return cmd
}

func newFeedbackCmd(a *app) *cobra.Command {
	var rfp, agentName, rating, comment, outputFile string
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Rate an agent output",
		Long:  "Records a thumbs up or down for an agent output. The output is read\nfrom --output-file, or from standard input when no file is given.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			name, err := agent.ParseName(agentName)
			if err != nil {
				return err
			}
			r, err := feedback.ParseRating(rating)
			if err != nil {
				return err
			}
			output, err := readOutput(cmd.InOrStdin(), outputFile)
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), false)
			if err != nil {
				return err
			}
			if err := svc.RecordFeedback(feedback.Entry{
				RFPFile: rfp,
				Agent:   name.Title(),
				Output:  output,
				Rating:  r,
				Comment: comment,
			}); err != nil {
				return err
			}
			cmd.Println("Thanks for your feedback!")
			return nil
		},
	}
	cmd.Flags().StringVar(&rfp, "rfp", "", "RFP file name")
	cmd.Flags().StringVar(&agentName, "agent", "", "agent that produced the output")
	cmd.Flags().StringVar(&rating, "rating", "", "up or down")
	cmd.Flags().StringVar(&comment, "comment", "", "optional comment")
	cmd.Flags().StringVar(&outputFile, "output-file", "", "file holding the rated output")
	_ = cmd.MarkFlagRequired("rfp")
	_ = cmd.MarkFlagRequired("agent")
	_ = cmd.MarkFlagRequired("rating")
	return cmd
}

func readOutput(stdin io.Reader, path string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read output file: %w", err)
		}
		return string(data), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read output: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}
