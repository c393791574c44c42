package httpapi

import (
	"net/http"
	"reflect"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3gen"

	"github.com/R3E-Network/jobhunter/internal/httputil"
	"github.com/R3E-Network/jobhunter/internal/middleware"
)

const bearerScheme = "bearerAuth"

// APIVersion is reported in the OpenAPI info block.
const APIVersion = "1.0.0"

func (h *handler) apiDocs(w http.ResponseWriter, r *http.Request) {
	h.docOnce.Do(func() {
		h.doc, h.docErr = buildOpenAPI(h.routes())
	})
	if h.docErr != nil {
		writeErr(w, r, h.log, h.docErr)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, h.doc)
}

// buildOpenAPI describes routes. Schemas are generated from the sample
// request and response values; responses are wrapped in the envelope.
func buildOpenAPI(routes []Route) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info: &openapi3.Info{
			Title:       "Jobhunter API",
			Version:     APIVersion,
			Description: "Recruitment platform: companies, jobs, resumes, subscribers and the career chatbot.",
		},
		Paths: openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: openapi3.Schemas{},
			SecuritySchemes: openapi3.SecuritySchemes{
				bearerScheme: &openapi3.SecuritySchemeRef{Value: openapi3.NewJWTSecurityScheme()},
			},
		},
	}
	secured := openapi3.NewSecurityRequirements().With(openapi3.NewSecurityRequirement().Authenticate(bearerScheme))

	for _, rt := range routes {
		path := openAPIPath(rt.Path)
		op := openapi3.NewOperation()
		op.Summary = rt.Name
		op.OperationID = operationID(rt)
		op.Tags = []string{strings.ToLower(rt.Module)}
		if !middleware.PublicRoutes.Match(rt.Method, rt.Path) {
			op.Security = secured
		}

		for _, name := range pathParams(path) {
			op.AddParameter(openapi3.NewPathParameter(name).WithSchema(openapi3.NewInt64Schema()))
		}
		if isPage(rt.Response) {
			for _, q := range []string{"filter", "page", "size", "sort"} {
				op.AddParameter(openapi3.NewQueryParameter(q).WithSchema(openapi3.NewStringSchema()))
			}
		}

		if rt.Request != nil {
			ref, err := openapi3gen.NewSchemaRefForValue(rt.Request, doc.Components.Schemas)
			if err != nil {
				return nil, err
			}
			op.RequestBody = &openapi3.RequestBodyRef{Value: openapi3.NewRequestBody().WithRequired(true).WithJSONSchemaRef(ref)}
		}

		envelope := openapi3.NewObjectSchema().
			WithProperty("statusCode", openapi3.NewIntegerSchema()).
			WithProperty("message", openapi3.NewStringSchema())
		if rt.Response != nil {
			ref, err := openapi3gen.NewSchemaRefForValue(rt.Response, doc.Components.Schemas)
			if err != nil {
				return nil, err
			}
			envelope = envelope.WithPropertyRef("data", ref)
		}
		ok := openapi3.NewResponse().WithDescription("OK").WithJSONSchema(envelope)
		op.Responses = openapi3.NewResponses(openapi3.WithStatus(successStatus(rt), &openapi3.ResponseRef{Value: ok}))

		item := doc.Paths.Value(path)
		if item == nil {
			item = &openapi3.PathItem{}
			doc.Paths.Set(path, item)
		}
		item.SetOperation(rt.Method, op)
	}
	return doc, nil
}

// isPage reports whether v is a paginated result, which takes the list
// query parameters.
func isPage(v interface{}) bool {
	if v == nil {
		return false
	}
	return strings.HasPrefix(reflect.TypeOf(v).Name(), "Result[")
}

func successStatus(rt Route) int {
	if rt.Method == http.MethodPost && rt.Response != nil && strings.HasPrefix(rt.Name, "Create") {
		return http.StatusCreated
	}
	return http.StatusOK
}

func operationID(rt Route) string {
	words := strings.Fields(strings.ToLower(rt.Name))
	for i := 1; i < len(words); i++ {
		words[i] = strings.ToUpper(words[i][:1]) + words[i][1:]
	}
	return strings.Join(words, "")
}

func pathParams(path string) []string {
	var out []string
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			return out
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return out
		}
		out = append(out, path[open+1:open+end])
		path = path[open+end+1:]
	}
}

const swaggerPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Jobhunter API</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css" />
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js" crossorigin></script>
  <script>
    window.onload = () => {
      window.ui = SwaggerUIBundle({ url: '/v3/api-docs', dom_id: '#swagger-ui', persistAuthorization: true });
    };
  </script>
</body>
</html>
`

func (h *handler) swaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(swaggerPage))
}
