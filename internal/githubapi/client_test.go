package githubapi_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tylerslaton/olmsync/internal/githubapi"
	"github.com/tylerslaton/olmsync/internal/gitrepo"
)

const (
	testTokenConstant               = "ghp_test_token"
	testLoginConstant               = "alice"
	testBranchNameConstant          = "sync-2024-05-01"
	testPullRequestTitleConstant    = "Sync 2024-05-01"
	testPullRequestURLConstant      = "https://github.com/openshift/operator-framework-olm/pull/42"
	testAuthorizationHeaderConstant = "Bearer " + testTokenConstant
	testPullsPathConstant           = "/repos/openshift/operator-framework-olm/pulls"
)

var canonicalRepository = gitrepo.RepositoryIdentifier{Owner: "openshift", Name: "operator-framework-olm"}

type recordedRequest struct {
	method        string
	path          string
	query         string
	authorization string
	body          map[string]any
}

func newTestClient(testInstance *testing.T, handler func(writer http.ResponseWriter, request *http.Request)) (*githubapi.Client, *[]recordedRequest) {
	testInstance.Helper()

	recordedRequests := &[]recordedRequest{}
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestRecord := recordedRequest{
			method:        request.Method,
			path:          request.URL.Path,
			query:         request.URL.RawQuery,
			authorization: request.Header.Get("Authorization"),
		}
		if request.Body != nil && request.ContentLength != 0 {
			decodedBody := map[string]any{}
			_ = json.NewDecoder(request.Body).Decode(&decodedBody)
			requestRecord.body = decodedBody
		}
		*recordedRequests = append(*recordedRequests, requestRecord)
		writer.Header().Set("Content-Type", "application/json")
		handler(writer, request)
	}))
	testInstance.Cleanup(server.Close)

	client, creationError := githubapi.NewClient(testTokenConstant, githubapi.WithBaseURL(server.URL), githubapi.WithHTTPClient(server.Client()))
	require.NoError(testInstance, creationError)
	return client, recordedRequests
}

func writeJSON(writer http.ResponseWriter, statusCode int, payload any) {
	writer.WriteHeader(statusCode)
	_ = json.NewEncoder(writer).Encode(payload)
}

func TestNewClientValidation(testInstance *testing.T) {
	_, missingTokenError := githubapi.NewClient("  ")
	require.ErrorIs(testInstance, missingTokenError, githubapi.ErrTokenRequired)

	_, invalidBaseURLError := githubapi.NewClient(testTokenConstant, githubapi.WithBaseURL("not a url"))
	var inputError githubapi.InvalidInputError
	require.ErrorAs(testInstance, invalidBaseURLError, &inputError)
}

func TestClientAuthenticatedLogin(testInstance *testing.T) {
	client, recordedRequests := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{"login": testLoginConstant})
	})

	login, loginError := client.AuthenticatedLogin(context.Background())
	require.NoError(testInstance, loginError)
	require.Equal(testInstance, testLoginConstant, login)

	require.Len(testInstance, *recordedRequests, 1)
	require.Equal(testInstance, "/user", (*recordedRequests)[0].path)
	require.Equal(testInstance, testAuthorizationHeaderConstant, (*recordedRequests)[0].authorization)
}

func TestClientAuthenticatedLoginFailure(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusUnauthorized, map[string]any{"message": "Bad credentials"})
	})

	_, loginError := client.AuthenticatedLogin(context.Background())
	var operationError githubapi.OperationError
	require.ErrorAs(testInstance, loginError, &operationError)
	require.Equal(testInstance, githubapi.OperationName("ResolveAuthenticatedLogin"), operationError.Operation)
}

func TestClientResolveRepository(testInstance *testing.T) {
	testCases := []struct {
		name             string
		statusCode       int
		payload          map[string]any
		expectNotFound   bool
		expectOperation  bool
		expectedMetadata githubapi.RepositoryMetadata
	}{
		{
			name:             "found",
			statusCode:       http.StatusOK,
			payload:          map[string]any{"full_name": "alice/operator-framework-olm", "default_branch": "master", "fork": true},
			expectedMetadata: githubapi.RepositoryMetadata{FullName: "alice/operator-framework-olm", DefaultBranch: "master", Fork: true},
		},
		{
			name:           "not_found",
			statusCode:     http.StatusNotFound,
			payload:        map[string]any{"message": "Not Found"},
			expectNotFound: true,
		},
		{
			name:            "server_error",
			statusCode:      http.StatusInternalServerError,
			payload:         map[string]any{"message": "boom"},
			expectOperation: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, recordedRequests := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
				writeJSON(writer, testCase.statusCode, testCase.payload)
			})

			forkRepository := gitrepo.RepositoryIdentifier{Owner: testLoginConstant, Name: "operator-framework-olm"}
			metadata, resolveError := client.ResolveRepository(context.Background(), forkRepository)

			require.Equal(testInstance, "/repos/alice/operator-framework-olm", (*recordedRequests)[0].path)
			switch {
			case testCase.expectNotFound:
				var notFoundError githubapi.RepositoryNotFoundError
				require.ErrorAs(testInstance, resolveError, &notFoundError)
				require.Equal(testInstance, forkRepository, notFoundError.Repository)
			case testCase.expectOperation:
				var operationError githubapi.OperationError
				require.ErrorAs(testInstance, resolveError, &operationError)
			default:
				require.NoError(testInstance, resolveError)
				require.Equal(testInstance, testCase.expectedMetadata, metadata)
			}
		})
	}
}

func TestClientCreatePullRequest(testInstance *testing.T) {
	client, recordedRequests := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusCreated, map[string]any{
			"number":   42,
			"html_url": testPullRequestURLConstant,
			"title":    testPullRequestTitleConstant,
			"head":     map[string]any{"label": githubapi.FormatHead(testLoginConstant, testBranchNameConstant)},
		})
	})

	pullRequest, createError := client.CreatePullRequest(context.Background(), canonicalRepository, githubapi.NewPullRequest{
		Title: testPullRequestTitleConstant,
		Body:  testPullRequestTitleConstant,
		Head:  githubapi.FormatHead(testLoginConstant, testBranchNameConstant),
		Base:  "master",
	})
	require.NoError(testInstance, createError)
	require.Equal(testInstance, githubapi.PullRequest{Number: 42, URL: testPullRequestURLConstant, Title: testPullRequestTitleConstant, Head: "alice:sync-2024-05-01"}, pullRequest)

	require.Len(testInstance, *recordedRequests, 1)
	createRequest := (*recordedRequests)[0]
	require.Equal(testInstance, http.MethodPost, createRequest.method)
	require.Equal(testInstance, testPullsPathConstant, createRequest.path)
	require.Equal(testInstance, testAuthorizationHeaderConstant, createRequest.authorization)
	require.Equal(testInstance, testPullRequestTitleConstant, createRequest.body["title"])
	require.Equal(testInstance, testPullRequestTitleConstant, createRequest.body["body"])
	require.Equal(testInstance, "alice:sync-2024-05-01", createRequest.body["head"])
	require.Equal(testInstance, "master", createRequest.body["base"])
}

func TestClientCreatePullRequestDetectsDuplicate(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation Failed",
			"errors": []map[string]any{{
				"resource": "PullRequest",
				"code":     "custom",
				"message":  fmt.Sprintf("A pull request already exists for %s.", githubapi.FormatHead(testLoginConstant, testBranchNameConstant)),
			}},
		})
	})

	_, createError := client.CreatePullRequest(context.Background(), canonicalRepository, githubapi.NewPullRequest{
		Title: testPullRequestTitleConstant,
		Body:  testPullRequestTitleConstant,
		Head:  githubapi.FormatHead(testLoginConstant, testBranchNameConstant),
		Base:  "master",
	})

	var existsError githubapi.PullRequestExistsError
	require.ErrorAs(testInstance, createError, &existsError)
	require.Equal(testInstance, "alice:sync-2024-05-01", existsError.Head)
}

func TestClientCreatePullRequestOtherValidationFailure(testInstance *testing.T) {
	client, _ := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusUnprocessableEntity, map[string]any{
			"message": "Validation Failed",
			"errors":  []map[string]any{{"resource": "PullRequest", "field": "base", "code": "invalid"}},
		})
	})

	_, createError := client.CreatePullRequest(context.Background(), canonicalRepository, githubapi.NewPullRequest{
		Title: testPullRequestTitleConstant,
		Head:  githubapi.FormatHead(testLoginConstant, testBranchNameConstant),
		Base:  "missing",
	})

	var existsError githubapi.PullRequestExistsError
	require.NotErrorAs(testInstance, createError, &existsError)
	var operationError githubapi.OperationError
	require.ErrorAs(testInstance, createError, &operationError)
}

func TestClientCreatePullRequestValidatesInput(testInstance *testing.T) {
	client, recordedRequests := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusCreated, map[string]any{})
	})

	testCases := []struct {
		name          string
		repository    gitrepo.RepositoryIdentifier
		request       githubapi.NewPullRequest
		expectedField string
	}{
		{name: "missing_repository", repository: gitrepo.RepositoryIdentifier{}, request: githubapi.NewPullRequest{Title: "t", Head: "h", Base: "b"}, expectedField: "repository"},
		{name: "missing_title", repository: canonicalRepository, request: githubapi.NewPullRequest{Head: "h", Base: "b"}, expectedField: "title"},
		{name: "missing_head", repository: canonicalRepository, request: githubapi.NewPullRequest{Title: "t", Base: "b"}, expectedField: "head"},
		{name: "missing_base", repository: canonicalRepository, request: githubapi.NewPullRequest{Title: "t", Head: "h"}, expectedField: "base"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, createError := client.CreatePullRequest(context.Background(), testCase.repository, testCase.request)
			var inputError githubapi.InvalidInputError
			require.ErrorAs(testInstance, createError, &inputError)
			require.Equal(testInstance, testCase.expectedField, inputError.FieldName)
		})
	}
	require.Empty(testInstance, *recordedRequests)
}

func TestClientFindOpenPullRequest(testInstance *testing.T) {
	testCases := []struct {
		name        string
		payload     []map[string]any
		expectFound bool
	}{
		{
			name:        "found",
			payload:     []map[string]any{{"number": 42, "html_url": testPullRequestURLConstant, "title": testPullRequestTitleConstant}},
			expectFound: true,
		},
		{
			name:        "absent",
			payload:     []map[string]any{},
			expectFound: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client, recordedRequests := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
				writeJSON(writer, http.StatusOK, testCase.payload)
			})

			pullRequest, found, findError := client.FindOpenPullRequest(context.Background(), canonicalRepository, githubapi.FormatHead(testLoginConstant, testBranchNameConstant), "master")
			require.NoError(testInstance, findError)
			require.Equal(testInstance, testCase.expectFound, found)
			if testCase.expectFound {
				require.Equal(testInstance, 42, pullRequest.Number)
				require.Equal(testInstance, testPullRequestURLConstant, pullRequest.URL)
			}

			listRequest := (*recordedRequests)[0]
			require.Equal(testInstance, http.MethodGet, listRequest.method)
			require.Equal(testInstance, testPullsPathConstant, listRequest.path)
			require.Contains(testInstance, listRequest.query, "state=open")
			require.Contains(testInstance, listRequest.query, "head=alice%3Async-2024-05-01")
			require.Contains(testInstance, listRequest.query, "base=master")
		})
	}
}

func TestClientUpdatePullRequest(testInstance *testing.T) {
	client, recordedRequests := newTestClient(testInstance, func(writer http.ResponseWriter, request *http.Request) {
		writeJSON(writer, http.StatusOK, map[string]any{"number": 42, "html_url": testPullRequestURLConstant, "title": testPullRequestTitleConstant})
	})

	pullRequest, updateError := client.UpdatePullRequest(context.Background(), canonicalRepository, 42, testPullRequestTitleConstant, testPullRequestTitleConstant)
	require.NoError(testInstance, updateError)
	require.Equal(testInstance, 42, pullRequest.Number)

	updateRequest := (*recordedRequests)[0]
	require.Equal(testInstance, http.MethodPatch, updateRequest.method)
	require.Equal(testInstance, testPullsPathConstant+"/42", updateRequest.path)
	require.Equal(testInstance, testPullRequestTitleConstant, updateRequest.body["title"])
	require.Equal(testInstance, testPullRequestTitleConstant, updateRequest.body["body"])

	_, invalidNumberError := client.UpdatePullRequest(context.Background(), canonicalRepository, 0, "t", "b")
	var inputError githubapi.InvalidInputError
	require.ErrorAs(testInstance, invalidNumberError, &inputError)
}
