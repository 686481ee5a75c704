package report

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"symptom-triage/internal/catalog"
	"symptom-triage/internal/consultation"
	"symptom-triage/internal/diagnosis"
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendDocument(ctx context.Context, chatID int64, fileData []byte, fileName, caption string) error
}

// DefaultFontPaths are tried, in order, after the configured font.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	fontName    = "DejaVu"
	pageBottom  = 780
	textWidth   = 500
	lineSpacing = 4
)

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	fontPaths    []string
	now          func() time.Time
}

// NewService builds the report service. tg may be nil, in which case reports
// can be rendered but not delivered.
func NewService(tg TelegramClient, doctorChatID int64, fontPath string) *Service {
	paths := DefaultFontPaths
	if fontPath != "" {
		paths = append([]string{fontPath}, DefaultFontPaths...)
	}
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		fontPaths:    paths,
		now:          time.Now,
	}
}

type line struct {
	size float64
	text string
	gap  float64
}

// lines lays out the report content.
func (s *Service) lines(sess consultation.Session, r diagnosis.Report) []line {
	p := sess.Profile
	out := []line{
		{size: 20, text: "Informe de triaje", gap: 15},
		{size: 11, text: fmt.Sprintf("Fecha: %s", s.now().Format("02.01.2006 15:04"))},
		{size: 11, text: fmt.Sprintf("Sesión: %s", sess.ID)},
		{size: 11, text: fmt.Sprintf("Paciente: %d años, sexo %s, IMC %.1f", p.Age, p.Sex, p.BMI()), gap: 15},
		{size: 14, text: "Síntomas confirmados:"},
	}

	confirmed := confirmedLabels(sess.State)
	if len(confirmed) == 0 {
		out = append(out, line{size: 11, text: "- Ninguno."})
	}
	for _, c := range confirmed {
		out = append(out, line{size: 11, text: "- " + c})
	}
	out = append(out, line{size: 11, text: fmt.Sprintf("Preguntas respondidas: %d", r.QuestionsAsked), gap: 15})

	out = append(out, line{size: 14, text: "Condiciones más probables:"})
	if len(r.Candidates) == 0 {
		out = append(out, line{size: 11, text: "- Sin resultados."})
	}
	for i, c := range r.Candidates {
		out = append(out,
			line{size: 12, text: fmt.Sprintf("%d. %s (%.1f%%)", i+1, c.Name, c.Score)},
			line{size: 10, text: fmt.Sprintf("Coincidencias: %d de %d síntomas", c.Coincidence, c.ConditionTotal)},
		)
		if c.Description != "" {
			out = append(out, line{size: 10, text: "Descripción: " + c.Description})
		}
		if c.Treatment != "" {
			out = append(out, line{size: 10, text: "Tratamiento: " + c.Treatment})
		}
		out[len(out)-1].gap = 8
	}

	if r.Advisory != "" {
		out = append(out, line{size: 11, text: r.Advisory, gap: 8})
	}
	out = append(out, line{size: 9, text: "Orientación automática, no sustituye la valoración de un médico."})
	return out
}

func confirmedLabels(st diagnosis.State) []string {
	var out []string
	for _, s := range st.Asked {
		if st.Values[s] == 1 && !catalog.IsRisk(s) {
			out = append(out, catalog.Label(s))
		}
	}
	return out
}

func (s *Service) loadFont(pdf *gopdf.GoPdf) error {
	var fontErr error
	for _, path := range s.fontPaths {
		if err := pdf.AddTTFFont(fontName, path); err == nil {
			slog.Debug("loaded report font", "path", path)
			return nil
		} else {
			fontErr = err
		}
	}
	return fmt.Errorf("failed to load font for PDF, set REPORT_FONT_PATH or install ttf-dejavu: %w", fontErr)
}

// Render draws the session's diagnosis as a PDF document.
func (s *Service) Render(sess consultation.Session, r diagnosis.Report) ([]byte, error) {
	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()
	if err := s.loadFont(&pdf); err != nil {
		return nil, err
	}

	pdf.SetY(40)
	for _, l := range s.lines(sess, r) {
		if err := pdf.SetFont(fontName, "", l.size); err != nil {
			return nil, err
		}
		wrapped, err := pdf.SplitText(l.text, textWidth)
		if err != nil {
			wrapped = []string{l.text}
		}
		for _, w := range wrapped {
			if pdf.GetY() > pageBottom {
				pdf.AddPage()
				pdf.SetY(40)
			}
			pdf.SetX(40)
			if err := pdf.Cell(nil, w); err != nil {
				return nil, err
			}
			pdf.Br(l.size + lineSpacing)
		}
		pdf.Br(l.gap)
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// SendDoctorReport renders the report and delivers it to the doctor chat,
// followed by the advisory as a text message when there is one.
func (s *Service) SendDoctorReport(ctx context.Context, sess consultation.Session, r diagnosis.Report) error {
	if s.tgClient == nil || s.doctorChatID == 0 {
		return consultation.ErrDeliveryUnavailable
	}
	data, err := s.Render(sess, r)
	if err != nil {
		return err
	}

	fileName := fmt.Sprintf("report_%s.pdf", sess.ID)
	slog.Info("sending report", "session_id", sess.ID, "chat_id", s.doctorChatID)
	if err := s.tgClient.SendDocument(ctx, s.doctorChatID, data, fileName, caption(r)); err != nil {
		return fmt.Errorf("telegram delivery failed: %w", err)
	}
	if r.Advisory != "" {
		note := fmt.Sprintf("Sesión %s: %s", sess.ID, r.Advisory)
		if err := s.tgClient.SendMessage(ctx, s.doctorChatID, note); err != nil {
			return fmt.Errorf("telegram delivery failed: %w", err)
		}
	}
	return nil
}

func caption(r diagnosis.Report) string {
	if len(r.Candidates) == 0 {
		return "Informe de triaje"
	}
	names := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		names[i] = c.Name
	}
	return "Informe de triaje: " + strings.Join(names, ", ")
}
