// Command triage runs a single triage session in the terminal and prints the
// blended ranking at the end.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"symptom-triage/internal/catalog"
	"symptom-triage/internal/config"
	"symptom-triage/internal/diagnosis"
	"symptom-triage/internal/patient"
	"symptom-triage/internal/platform/logging"
	"symptom-triage/internal/sessionlog"
	"symptom-triage/internal/symptom"
)

const maxQuestions = 50

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	catalogPath := flag.String("catalog", cfg.CatalogPath, "path to the condition catalog CSV")
	dsn := flag.String("db", cfg.DatabaseURL, "Postgres URL for session records (optional)")
	cutoff := flag.Float64("cutoff", cfg.MatchCutoff, "minimum similarity for matching a described symptom")
	history := flag.Int("history", 0, "print the latest N session records and exit")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logging.Configure("WARN")
	if *verbose {
		logging.SetLevel(slog.LevelDebug)
	}

	ctx := context.Background()
	var recorder sessionlog.Recorder = sessionlog.NopRecorder{}
	if *dsn != "" {
		db, err := sessionlog.Open(ctx, *dsn)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer db.Close()
		if err := sessionlog.Migrate(cfg.MigrationsPath, *dsn); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		pg := sessionlog.NewPostgresRecorder(db)
		if *history > 0 {
			if err := printHistory(ctx, os.Stdout, pg, *history); err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			return
		}
		recorder = pg
	} else if *history > 0 {
		fmt.Fprintln(os.Stderr, "-history needs a database (-db or DATABASE_URL)")
		os.Exit(2)
	}

	cat, err := catalog.Load(*catalogPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := run(ctx, os.Stdin, os.Stdout, cat, *cutoff, recorder); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func (p *prompter) ask(question string) (string, error) {
	fmt.Fprint(p.out, question)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

func (p *prompter) askNumber(question string) (float64, error) {
	for {
		s, err := p.ask(question)
		if err != nil {
			return 0, err
		}
		v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
		if err == nil {
			return v, nil
		}
		fmt.Fprintln(p.out, "Introduce un número.")
	}
}

func (p *prompter) askYesNo(question string) (bool, error) {
	for {
		s, err := p.ask(question + " (s/n): ")
		if err != nil {
			return false, err
		}
		switch strings.ToLower(s) {
		case "s", "si", "sí", "y", "yes":
			return true, nil
		case "n", "no":
			return false, nil
		}
		fmt.Fprintln(p.out, "Responde s o n.")
	}
}

func (p *prompter) profile() (patient.Profile, error) {
	for {
		age, err := p.askNumber("Edad: ")
		if err != nil {
			return patient.Profile{}, err
		}
		sexText, err := p.ask("Sexo (M/F): ")
		if err != nil {
			return patient.Profile{}, err
		}
		weight, err := p.askNumber("Peso (kg): ")
		if err != nil {
			return patient.Profile{}, err
		}
		height, err := p.askNumber("Altura (m): ")
		if err != nil {
			return patient.Profile{}, err
		}

		sex, err := patient.ParseSex(sexText)
		if err == nil {
			prof := patient.Profile{Age: int(age), Sex: sex, Weight: weight, Height: height}
			if err = prof.Validate(); err == nil {
				return prof, nil
			}
		}
		fmt.Fprintln(p.out, err)
	}
}

// run drives one session against cat, reading answers from in.
func run(ctx context.Context, in io.Reader, out io.Writer, cat *catalog.Catalog, cutoff float64, recorder sessionlog.Recorder) error {
	p := &prompter{in: bufio.NewScanner(in), out: out}
	engine := diagnosis.NewEngine(cat, diagnosis.DefaultOptions())
	resolver := symptom.NewResolver(cat.Symptoms(), symptom.WithCutoff(cutoff))

	prof, err := p.profile()
	if err != nil {
		return err
	}
	risks, err := patient.RiskVector(prof)
	if err != nil {
		return err
	}

	var confirmed []string
	for len(confirmed) == 0 {
		text, err := p.ask("Describe tus síntomas separados por comas: ")
		if err != nil {
			return err
		}
		res := resolver.Resolve(symptom.SplitComplaint(text))
		confirmed = diagnosis.StripExcluded(res.Symptoms, prof.Sex)
		if len(confirmed) == 0 {
			fmt.Fprintln(out, "No reconocí ningún síntoma, inténtalo de nuevo.")
			continue
		}
		for raw, sym := range res.Trace {
			slog.Debug("symptom matched", "term", raw, "symptom", sym)
		}
		labels := make([]string, len(confirmed))
		for i, s := range confirmed {
			labels[i] = catalog.Label(s)
		}
		fmt.Fprintf(out, "Síntomas reconocidos: %s\n", strings.Join(labels, ", "))
	}

	st := diagnosis.NewState(prof.Sex, risks, confirmed)
	for st.QuestionsAsked < maxQuestions {
		step, err := engine.Next(&st)
		if errors.Is(err, diagnosis.ErrNoMoreQuestions) {
			break
		}
		if err != nil {
			return err
		}
		if step.Kind == diagnosis.StepConfident {
			break
		}
		yes, err := p.askYesNo(fmt.Sprintf("¿Tienes %s?", strings.ToLower(catalog.Label(step.Question.Symptom))))
		if err != nil {
			return err
		}
		if _, err := engine.Answer(&st, step.Question.Symptom, yes); err != nil {
			return err
		}
	}

	rep, err := engine.BlendedReport(&st)
	if err != nil {
		return err
	}
	printReport(out, rep)

	if rec, ok := sessionlog.NewRecord(uuid.NewString(), rep, time.Now()); ok {
		if err := recorder.Record(ctx, rec); err != nil {
			slog.Error("failed to record session", "error", err)
		}
	}
	return nil
}

func printReport(out io.Writer, rep diagnosis.Report) {
	fmt.Fprintf(out, "\nPreguntas respondidas: %d, síntomas confirmados: %d\n", rep.QuestionsAsked, rep.SymptomsConfirmed)
	if len(rep.Candidates) == 0 {
		fmt.Fprintln(out, rep.Advisory)
		return
	}
	fmt.Fprintln(out, "\nCondiciones más probables:")
	for i, c := range rep.Candidates {
		fmt.Fprintf(out, "%d. %s: %.1f%% (clásico %.1f, vecinos %.1f, %d de %d síntomas)\n",
			i+1, c.Name, c.Score, c.ClassicalScore, c.NeighborScore, c.Coincidence, c.ConditionTotal)
		if c.Description != "" {
			fmt.Fprintf(out, "   %s\n", c.Description)
		}
		if c.Treatment != "" {
			fmt.Fprintf(out, "   Tratamiento: %s\n", c.Treatment)
		}
	}
	if len(rep.Others) > 0 {
		fmt.Fprintln(out, "\nOtras posibilidades:")
		for _, c := range rep.Others {
			fmt.Fprintf(out, "- %s: %.1f%%\n", c.Name, c.Score)
		}
	}
	fmt.Fprintln(out, "\nEsta orientación no sustituye la valoración de un médico.")
}

func printHistory(ctx context.Context, out io.Writer, pg *sessionlog.PostgresRecorder, n int) error {
	records, err := pg.Recent(ctx, n)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(out, "%s  %s  %-30s %5.1f  (%d preguntas, %d síntomas)\n",
			r.EndedAt.Format("2006-01-02 15:04"), r.SessionID, r.Condition, r.Score, r.QuestionsAsked, r.SymptomsConfirmed)
	}
	return nil
}
