package service

import (
	"context"
	"errors"
	"testing"

	"adscan-go/internal/assessment"
	"adscan-go/internal/model"
	"adscan-go/pkg/tasks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleAnswers() map[string]interface{} {
	return map[string]interface{}{
		"symptom_duration": 2,
		"itching_severity": 3,
	}
}

func sampleResults() []assessment.ScanResult {
	return []assessment.ScanResult{
		{
			Filename:    "arm.jpg",
			ImageObject: "scans/1/arm.jpg",
			Prediction:  assessment.Prediction{Label: assessment.LabelAD, Score: 0.8, ModelUsed: "ad-general-v2"},
		},
	}
}

func TestAssessRejectsEmptyInput(t *testing.T) {
	svc := NewAssessmentService(newFakeChatRepo(), func(tasks.ReportRenderTask) error { return nil })
	user := &model.User{ID: 1, Role: model.RolePatient}

	_, _, err := svc.Assess(context.Background(), user, nil, sampleResults(), "", "")
	assert.Error(t, err)
	_, _, err = svc.Assess(context.Background(), user, sampleAnswers(), nil, "", "")
	assert.Error(t, err)
}

func TestAssessPersistsChatAndProducesTask(t *testing.T) {
	repo := newFakeChatRepo()
	var produced []tasks.ReportRenderTask
	svc := NewAssessmentService(repo, func(task tasks.ReportRenderTask) error {
		produced = append(produced, task)
		return nil
	})
	user := &model.User{ID: 7, Role: model.RolePatient}

	report, chatID, err := svc.Assess(context.Background(), user, sampleAnswers(), sampleResults(), "", "")
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, "patient_assessment", report.ReportType)

	chat, err := repo.FindByID(chatID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, chat.UserID)
	assert.Equal(t, model.ChatKindAssessment, chat.Kind)
	require.Len(t, chat.Messages, 2)
	assert.Equal(t, "user", chat.Messages[0].Sender)
	assert.Equal(t, "ai", chat.Messages[1].Sender)
	assert.Equal(t, report.Summary, chat.Messages[1].Text)
	assert.Equal(t, "ad-general-v2", chat.Messages[1].Meta["model_used"])

	require.Len(t, produced, 1)
	assert.Equal(t, chatID, produced[0].ChatID)
	assert.Equal(t, user.ID, produced[0].UserID)
}

func TestAssessSurvivesProducerFailure(t *testing.T) {
	repo := newFakeChatRepo()
	svc := NewAssessmentService(repo, func(tasks.ReportRenderTask) error {
		return errors.New("kafka unavailable")
	})
	user := &model.User{ID: 1, Role: model.RolePatient}

	report, chatID, err := svc.Assess(context.Background(), user, sampleAnswers(), sampleResults(), "", "")
	require.NoError(t, err)
	assert.NotNil(t, report)

	_, err = repo.FindByID(chatID)
	assert.NoError(t, err)
}

func TestResolveUserType(t *testing.T) {
	patient := &model.User{Role: model.RolePatient}
	clinician := &model.User{Role: model.RoleClinician}

	assert.Equal(t, assessment.UserTypePatient, resolveUserType(patient, ""))
	assert.Equal(t, assessment.UserTypeClinician, resolveUserType(clinician, ""))
	// 显式指定覆盖账号角色
	assert.Equal(t, assessment.UserTypeClinician, resolveUserType(patient, "clinician"))
	assert.Equal(t, assessment.UserTypePatient, resolveUserType(clinician, "patient"))
	// 非法值回退到账号角色
	assert.Equal(t, assessment.UserTypePatient, resolveUserType(patient, "bogus"))
}

func TestAssessClinicianWeighting(t *testing.T) {
	repo := newFakeChatRepo()
	svc := NewAssessmentService(repo, func(tasks.ReportRenderTask) error { return nil })
	clinician := &model.User{ID: 2, Role: model.RoleClinician}

	report, _, err := svc.Assess(context.Background(), clinician, sampleAnswers(), sampleResults(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "clinical_assessment", report.ReportType)
	assert.NotEmpty(t, report.Recommendations)
	assert.Empty(t, report.NextSteps)
}
