package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/dossier/internal/maintenance"
	"github.com/JaimeStill/dossier/internal/scanjobs"
)

func TestRenderTable(t *testing.T) {
	out := renderTable(
		[]string{"Name", "Count"},
		[][]string{{"alpha", "1"}, {"beta"}},
		[]columnAlignment{alignLeft, alignRight},
		false,
	)

	for _, want := range []string{"Name", "Count", "alpha", "beta"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\x1b[") {
		t.Error("uncolorized table contains escape codes")
	}

	if got := renderTable(nil, nil, nil, false); got != "" {
		t.Errorf("empty headers rendered %q", got)
	}
}

func TestReportSummary(t *testing.T) {
	tests := []struct {
		name   string
		report *maintenance.Report
		want   string
	}{
		{
			"empty",
			&maintenance.Report{},
			"0 document(s)",
		},
		{
			"grouped actions",
			&maintenance.Report{Items: []maintenance.Item{
				{Action: maintenance.ActionFiled},
				{Action: maintenance.ActionSkipped},
				{Action: maintenance.ActionFiled},
			}},
			"3 document(s), filed 2, skipped 1",
		},
		{
			"dry run",
			&maintenance.Report{DryRun: true, Items: []maintenance.Item{{Action: maintenance.ActionSplit}}},
			"1 document(s), split 1 (dry run, nothing written)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := reportSummary(tt.report); got != tt.want {
				t.Errorf("reportSummary = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReportRowsSortedByFilename(t *testing.T) {
	r := &maintenance.Report{Items: []maintenance.Item{
		{DocumentID: uuid.New(), Filename: "b.pdf", Action: maintenance.ActionFiled},
		{DocumentID: uuid.New(), Filename: "a.pdf", Action: maintenance.ActionFiled},
	}}

	rows := reportRows(r)
	if rows[0][1] != "a.pdf" || rows[1][1] != "b.pdf" {
		t.Errorf("rows not sorted: %v", rows)
	}
}

func TestJobRows(t *testing.T) {
	started := time.Now().Add(-2 * time.Minute)
	finished := started.Add(90 * time.Second)
	job := scanjobs.Job{
		ID:             uuid.New(),
		Source:         "archive",
		Status:         scanjobs.StatusCompleted,
		TotalFiles:     1200,
		ProcessedFiles: 1150,
		SkippedFiles:   48,
		ErrorFiles:     2,
		StartedAt:      started,
		FinishedAt:     &finished,
	}

	rows := jobRows([]scanjobs.Job{job})
	if len(rows) != 1 || len(rows[0]) != len(jobHeaders) {
		t.Fatalf("rows = %v", rows)
	}

	row := rows[0]
	if row[3] != "1,200" {
		t.Errorf("total = %q, want 1,200", row[3])
	}
	if row[8] != "1m30s" {
		t.Errorf("duration = %q, want 1m30s", row[8])
	}
}

func TestOptionalUUID(t *testing.T) {
	id, err := optionalUUID("", "document id")
	if err != nil || id != nil {
		t.Errorf("empty value = %v, %v; want nil, nil", id, err)
	}

	want := uuid.New()
	id, err = optionalUUID(want.String(), "document id")
	if err != nil || id == nil || *id != want {
		t.Errorf("valid value = %v, %v", id, err)
	}

	if _, err := optionalUUID("nope", "document id"); err == nil || !strings.Contains(err.Error(), "document id") {
		t.Errorf("invalid value err = %v", err)
	}
}

func TestCommandsRejectBadArgumentsBeforeConnecting(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad job id", []string{"jobs", "show", "nope"}, "invalid job id"},
		{"bad file id", []string{"personnel-file", "close", "nope"}, "invalid file id"},
		{"bad close date", []string{"pf", "close", uuid.NewString(), "--date", "19/10/2026"}, "invalid --date"},
		{"bad resplit document", []string{"resplit", "--document", "nope"}, "invalid document id"},
		{"unknown flag", []string{"scan", "archive", "--bogus"}, "unknown flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cc := &commandContext{}
			cmd := newRootCommand(cc)
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetErr(&out)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
			if cc.infra != nil {
				t.Error("infrastructure built for an invalid invocation")
			}
		})
	}
}
