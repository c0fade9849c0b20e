package accountsapi_test

import (
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/nimeshabuddhika/account-service-go/pkg/views"
	tests "github.com/nimeshabuddhika/account-service-go/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountLifecycle(t *testing.T) {
	baseURL, stop := tests.StartAccountAPIServer(t)
	defer stop()

	// Arrange
	payload := map[string]interface{}{
		"name":         "Jane Doe",
		"email":        "jane.doe@example.com",
		"address":      "1 Main Street",
		"phone_number": "+1-416-555-0199",
	}

	// Act: create
	resp, err := tests.PostRequest(t, baseURL+"/accounts", payload)
	require.NoError(t, err)

	// Assert response
	assert.NotEmpty(t, tests.GetTraceId(resp))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created, err := tests.DecodeAccount(resp.Body)
	require.NoError(t, err)
	assert.Positive(t, created.ID)
	assert.Equal(t, "Jane Doe", created.Name)
	assert.Equal(t, time.Now().Format(views.DateLayout), created.DateJoined)
	require.NotNil(t, created.PhoneNumber)
	assert.Equal(t, "+1-416-555-0199", *created.PhoneNumber)
	assert.Equal(t, fmt.Sprintf("/accounts/%d", created.ID), resp.Header.Get("Location"))

	accountURL := fmt.Sprintf("%s/accounts/%d", baseURL, created.ID)

	// Act: read it back
	resp, err = tests.GetRequest(t, accountURL)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	got, err := tests.DecodeAccount(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, created, got)

	// Act: replace mutable fields; phone_number omitted clears it
	resp, err = tests.PutRequest(t, accountURL, map[string]interface{}{
		"name":        "Jane Smith",
		"email":       "jane.smith@example.com",
		"address":     "2 Main Street",
		"date_joined": "1999-12-31", // ignored on update
	})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	updated, err := tests.DecodeAccount(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Jane Smith", updated.Name)
	assert.Equal(t, "jane.smith@example.com", updated.Email)
	assert.Nil(t, updated.PhoneNumber)
	assert.Equal(t, created.DateJoined, updated.DateJoined)

	// Act: delete
	resp, err = tests.DeleteRequest(t, accountURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	// Assert: reading a deleted account is a 404
	resp, err = tests.GetRequest(t, accountURL)
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	out, err := tests.DecodeError(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "APP_NOT_FOUND", out.Code)

	// Assert: deleting again is still a 204
	resp, err = tests.DeleteRequest(t, accountURL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestCreateAccount_ValidationFailure(t *testing.T) {
	baseURL, stop := tests.StartAccountAPIServer(t)
	defer stop()

	// Missing required name
	payload := map[string]interface{}{
		"email":   "jane.doe@example.com",
		"address": "1 Main Street",
	}

	resp, err := tests.PostRequest(t, baseURL+"/accounts", payload)
	require.NoError(t, err)

	assert.NotEmpty(t, tests.GetTraceId(resp))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	out, err := tests.DecodeError(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "APP_INVALID_INPUT", out.Code)
	assert.NotEmpty(t, out.Message)

	// Malformed email
	resp, err = tests.PostRequest(t, baseURL+"/accounts", map[string]interface{}{
		"name":    "Jane Doe",
		"email":   "not-an-email",
		"address": "1 Main Street",
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListAccounts_OrderedById(t *testing.T) {
	baseURL, stop := tests.StartAccountAPIServer(t)
	defer stop()

	// A fresh store lists as an empty array
	resp, err := tests.GetRequest(t, baseURL+"/accounts")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list, err := tests.DecodeAccountList(resp.Body)
	require.NoError(t, err)
	assert.Empty(t, list)

	names := []string{"alpha", "bravo", "charlie"}
	for _, name := range names {
		resp, err = tests.PostRequest(t, baseURL+"/accounts", map[string]interface{}{
			"name":    name,
			"email":   name + "@example.com",
			"address": "1 Main Street",
		})
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp, err = tests.GetRequest(t, baseURL+"/accounts")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list, err = tests.DecodeAccountList(resp.Body)
	require.NoError(t, err)
	require.Len(t, list, len(names))
	for i, account := range list {
		assert.Equal(t, names[i], account.Name)
		if i > 0 {
			assert.Greater(t, account.ID, list[i-1].ID)
		}
	}
}

func TestServiceEndpoints(t *testing.T) {
	baseURL, stop := tests.StartAccountAPIServer(t)
	defer stop()

	// Banner
	resp, err := tests.GetRequest(t, baseURL+"/")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Account REST API Service")

	// Health
	resp, err = tests.GetRequest(t, baseURL+"/health")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// Supplied trace ids are echoed back
	resp, err = tests.PostRequestWithHeaders(t, baseURL+"/accounts", map[string]interface{}{
		"name":    "Jane Doe",
		"email":   "jane.doe@example.com",
		"address": "1 Main Street",
	}, map[string]string{"X-Trace-Id": "e2e-trace-123"})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "e2e-trace-123", tests.GetTraceId(resp))

	// Metrics include the instrumented resource routes
	resp, err = tests.GetRequest(t, baseURL+"/metrics")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "account_service_http_requests_total")

	// OpenAPI document is served
	resp, err = tests.GetRequest(t, baseURL+"/docs/openapi")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Account Service API")
}
