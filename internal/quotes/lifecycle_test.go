package quotes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmadouLah/pneumback-sub001/pkg/enums"
	pkgerrors "github.com/AmadouLah/pneumback-sub001/pkg/errors"
)

func TestEnsureTransitionHappyPath(t *testing.T) {
	sequence := []struct {
		action Action
		from   enums.QuoteStatus
		role   enums.ActorRole
		to     enums.QuoteStatus
	}{
		{ActionBeginPricing, enums.QuoteStatusEnAttente, enums.ActorRoleAdmin, enums.QuoteStatusDevisEnPreparation},
		{ActionIssueQuote, enums.QuoteStatusDevisEnPreparation, enums.ActorRoleAdmin, enums.QuoteStatusDevisEnvoye},
		{ActionRequestValidation, enums.QuoteStatusDevisEnvoye, enums.ActorRoleSystem, enums.QuoteStatusEnAttenteValidation},
		{ActionValidate, enums.QuoteStatusEnAttenteValidation, enums.ActorRoleClient, enums.QuoteStatusValideParClient},
		{ActionAssignDelivery, enums.QuoteStatusValideParClient, enums.ActorRoleAdmin, enums.QuoteStatusEnCoursLivraison},
		{ActionConfirmDelivery, enums.QuoteStatusEnCoursLivraison, enums.ActorRoleLivreur, enums.QuoteStatusTermine},
	}

	for _, step := range sequence {
		require.NoError(t, EnsureTransition(step.action, step.from, step.role), "action %s", step.action)
		target, ok := TargetStatus(step.action)
		require.True(t, ok)
		assert.Equal(t, step.to, target)
	}
}

func TestEnsureTransitionRejectsWrongSourceState(t *testing.T) {
	cases := []struct {
		name   string
		action Action
		from   enums.QuoteStatus
		role   enums.ActorRole
	}{
		{"issue before pricing", ActionIssueQuote, enums.QuoteStatusEnAttente, enums.ActorRoleAdmin},
		{"issue twice", ActionIssueQuote, enums.QuoteStatusDevisEnvoye, enums.ActorRoleAdmin},
		{"validate before issue", ActionValidate, enums.QuoteStatusDevisEnPreparation, enums.ActorRoleClient},
		{"assign before validation", ActionAssignDelivery, enums.QuoteStatusEnAttenteValidation, enums.ActorRoleAdmin},
		{"confirm without delivery", ActionConfirmDelivery, enums.QuoteStatusValideParClient, enums.ActorRoleLivreur},
		{"begin pricing from terminal", ActionBeginPricing, enums.QuoteStatusAnnule, enums.ActorRoleAdmin},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureTransition(tc.action, tc.from, tc.role)
			require.Error(t, err)

			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())

			details, ok := appErr.Details().(map[string]any)
			require.True(t, ok)
			assert.Equal(t, tc.from.String(), details["current_status"])
			assert.NotEmpty(t, details["target_status"])
			assert.NotEmpty(t, details["required_roles"])
		})
	}
}

func TestEnsureTransitionRejectsWrongActor(t *testing.T) {
	cases := []struct {
		name   string
		action Action
		from   enums.QuoteStatus
		role   enums.ActorRole
	}{
		{"client cannot price", ActionBeginPricing, enums.QuoteStatusEnAttente, enums.ActorRoleClient},
		{"admin cannot validate", ActionValidate, enums.QuoteStatusEnAttenteValidation, enums.ActorRoleAdmin},
		{"livreur cannot assign", ActionAssignDelivery, enums.QuoteStatusValideParClient, enums.ActorRoleLivreur},
		{"client cannot confirm delivery", ActionConfirmDelivery, enums.QuoteStatusEnCoursLivraison, enums.ActorRoleClient},
		{"livreur cannot cancel", ActionCancel, enums.QuoteStatusEnAttente, enums.ActorRoleLivreur},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := EnsureTransition(tc.action, tc.from, tc.role)
			require.Error(t, err)

			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			assert.Equal(t, pkgerrors.CodeStateConflict, appErr.Code())
		})
	}
}

func TestEnsureTransitionCancel(t *testing.T) {
	nonTerminal := []enums.QuoteStatus{
		enums.QuoteStatusEnAttente,
		enums.QuoteStatusDevisEnPreparation,
		enums.QuoteStatusDevisEnvoye,
		enums.QuoteStatusEnAttenteValidation,
		enums.QuoteStatusValideParClient,
		enums.QuoteStatusEnCoursLivraison,
	}
	for _, status := range nonTerminal {
		assert.NoError(t, EnsureTransition(ActionCancel, status, enums.ActorRoleAdmin), "status %s", status)
		assert.NoError(t, EnsureTransition(ActionCancel, status, enums.ActorRoleClient), "status %s", status)
	}

	for _, status := range []enums.QuoteStatus{enums.QuoteStatusTermine, enums.QuoteStatusAnnule} {
		err := EnsureTransition(ActionCancel, status, enums.ActorRoleAdmin)
		require.Error(t, err, "status %s", status)
	}
}

func TestEnsureTransitionUnknownAction(t *testing.T) {
	err := EnsureTransition(Action("teleport"), enums.QuoteStatusEnAttente, enums.ActorRoleAdmin)
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeValidation, appErr.Code())
}
