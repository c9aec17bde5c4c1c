package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	graphql "github.com/graph-gophers/graphql-go"

	gql "github.com/ecomgo/reviews/internal/graphql"
	apperrors "github.com/ecomgo/reviews/pkg/errors"
	"github.com/ecomgo/reviews/pkg/httputil"
)

// multipartMemory is kept in memory per request; larger parts spill to disk.
const multipartMemory = 8 << 20

type graphqlRequest struct {
	Query         string         `json:"query"`
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
}

// GraphQLHandler serves POST /graphql with either a JSON body or a
// multipart request carrying file uploads.
type GraphQLHandler struct {
	schema  *graphql.Schema
	maxBody int64
	logger  *slog.Logger
}

// NewGraphQLHandler creates the handler. maxBody caps the request body size.
func NewGraphQLHandler(schema *graphql.Schema, maxBody int64, logger *slog.Logger) *GraphQLHandler {
	return &GraphQLHandler{schema: schema, maxBody: maxBody, logger: logger}
}

func (h *GraphQLHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}

	ctx := r.Context()
	var req graphqlRequest

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		files, err := h.decodeMultipart(r, &req)
		if err != nil {
			httputil.WriteError(w, r, err, h.logger)
			return
		}
		ctx = gql.WithUploads(ctx, files)
	case "application/json", "":
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("invalid JSON body: "+err.Error()), h.logger)
			return
		}
	default:
		httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.ErrorResponse{Error: httputil.ErrorBody{
			Code:    "UNSUPPORTED_MEDIA_TYPE",
			Message: "Content-Type must be application/json or multipart/form-data",
		}})
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("query is required"), h.logger)
		return
	}

	resp := h.schema.Exec(ctx, req.Query, req.OperationName, req.Variables)
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// decodeMultipart reads a request laid out as an "operations" field, a "map"
// field and one part per file. Every variable path named in the map is
// replaced by the name of its file part.
func (h *GraphQLHandler) decodeMultipart(r *http.Request, req *graphqlRequest) (map[string]*multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, apperrors.InvalidInput("failed to parse multipart form: " + err.Error())
	}

	operations := r.FormValue("operations")
	if operations == "" {
		return nil, apperrors.InvalidInput("multipart request is missing the operations field")
	}
	if err := json.Unmarshal([]byte(operations), req); err != nil {
		return nil, apperrors.InvalidInput("invalid operations field: " + err.Error())
	}

	var fileMap map[string][]string
	if raw := r.FormValue("map"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &fileMap); err != nil {
			return nil, apperrors.InvalidInput("invalid map field: " + err.Error())
		}
	}

	files := make(map[string]*multipart.FileHeader, len(fileMap))
	for part, paths := range fileMap {
		if fhs := r.MultipartForm.File[part]; len(fhs) > 0 {
			files[part] = fhs[0]
		}
		for _, p := range paths {
			if err := setVariable(req, p, part); err != nil {
				return nil, apperrors.InvalidInput(err.Error())
			}
		}
	}
	return files, nil
}

// setVariable assigns value at a dotted path such as "variables.input.image"
// or "variables.files.0".
func setVariable(req *graphqlRequest, path, value string) error {
	segments := strings.Split(path, ".")
	if len(segments) < 2 || segments[0] != "variables" {
		return fmt.Errorf("unsupported upload path %q", path)
	}
	if req.Variables == nil {
		req.Variables = map[string]any{}
	}

	var container any = req.Variables
	for i, seg := range segments[1:] {
		last := i == len(segments)-2
		switch c := container.(type) {
		case map[string]any:
			if last {
				c[seg] = value
				return nil
			}
			next, ok := c[seg]
			if !ok || next == nil {
				next = map[string]any{}
				c[seg] = next
			}
			container = next
		case []any:
			idx, err := strconv.Atoi(seg)
			if err != nil || idx < 0 || idx >= len(c) {
				return fmt.Errorf("upload path %q: bad index %q", path, seg)
			}
			if last {
				c[idx] = value
				return nil
			}
			container = c[idx]
		default:
			return fmt.Errorf("upload path %q does not match the variables", path)
		}
	}
	return nil
}
