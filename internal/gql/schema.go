// Package gql exposes a read-only GraphQL view over identities and posts.
// Resolvers read the caller from the request context; nothing here bypasses
// the authorization gate.
package gql

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/graphql-go/graphql"
	"github.com/socialhub/socialhub/backend/go-services/internal/authz"
	"github.com/socialhub/socialhub/backend/go-services/internal/models"
	"github.com/socialhub/socialhub/backend/go-services/internal/post"
	"github.com/socialhub/socialhub/backend/go-services/internal/users"
)

// UserLookup loads identities by id.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// PostLister lists posts newest first.
type PostLister interface {
	List(ctx context.Context) ([]*post.Post, error)
}

var viewerType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Viewer",
	Fields: graphql.Fields{
		"id":       &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"username": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		"roles":    &graphql.Field{Type: graphql.NewList(graphql.String)},
	},
})

var userType = graphql.NewObject(graphql.ObjectConfig{
	Name: "User",
	Fields: graphql.Fields{
		"id":           &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"username":     &graphql.Field{Type: graphql.String},
		"role":         &graphql.Field{Type: graphql.String},
		"isActive":     &graphql.Field{Type: graphql.Boolean},
		"registeredAt": &graphql.Field{Type: graphql.DateTime},
	},
})

var postType = graphql.NewObject(graphql.ObjectConfig{
	Name: "Post",
	Fields: graphql.Fields{
		"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
		"authorId":  &graphql.Field{Type: graphql.String},
		"content":   &graphql.Field{Type: graphql.String},
		"createdAt": &graphql.Field{Type: graphql.DateTime},
	},
})

type viewer struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// NewSchema builds the root schema.
func NewSchema(usersSvc UserLookup, posts PostLister) (graphql.Schema, error) {
	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"viewer": &graphql.Field{
				Type: viewerType,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					claims := authz.FromContext(p.Context)
					if claims == nil {
						return nil, nil
					}
					return viewer{ID: claims.Subject, Username: claims.Name, Roles: []string(claims.Roles)}, nil
				},
			},
			"user": &graphql.Field{
				Type: userType,
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if authz.Authorize(authz.FromContext(p.Context), nil, nil) != authz.Allow {
						return nil, errors.New("unauthorized")
					}
					id, _ := p.Args["id"].(string)
					u, err := usersSvc.GetByID(p.Context, id)
					if errors.Is(err, users.ErrNotFound) {
						return nil, nil
					}
					if err != nil {
						return nil, errors.New("internal error")
					}
					return u, nil
				},
			},
			"posts": &graphql.Field{
				Type: graphql.NewList(postType),
				Args: graphql.FieldConfigArgument{
					"authorId": &graphql.ArgumentConfig{Type: graphql.ID},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					list, err := posts.List(p.Context)
					if err != nil {
						return nil, errors.New("internal error")
					}
					author, _ := p.Args["authorId"].(string)
					if author == "" {
						return list, nil
					}
					out := make([]*post.Post, 0, len(list))
					for _, ps := range list {
						if ps.AuthorID == author {
							out = append(out, ps)
						}
					}
					return out, nil
				},
			},
		},
	})
	return graphql.NewSchema(graphql.SchemaConfig{Query: query})
}

// Handler returns a Gin handler for GraphQL requests. It must run after the
// optional authentication middleware so the context carries the caller.
func Handler(schema graphql.Schema) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params struct {
			Query         string                 `json:"query"`
			OperationName string                 `json:"operationName"`
			Variables     map[string]interface{} `json:"variables"`
		}
		if err := c.ShouldBindJSON(&params); err != nil || params.Query == "" {
			c.JSON(http.StatusBadRequest, gin.H{
				"errors": []map[string]interface{}{{"message": "Invalid request body"}},
			})
			return
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  params.Query,
			VariableValues: params.Variables,
			OperationName:  params.OperationName,
			Context:        c.Request.Context(),
		})
		c.JSON(http.StatusOK, result)
	}
}
