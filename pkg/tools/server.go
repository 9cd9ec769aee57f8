package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.mongodb.org/mongo-driver/bson"
)

/*
Database is what the tool server needs from MongoDB. Every call names the
database and collection it works on.
*/
type Database interface {
	Aggregate(ctx context.Context, database, collection string, pipeline []bson.D) ([]bson.M, error)
	Find(ctx context.Context, database, collection string, filter, projection bson.D, limit int64) ([]bson.M, error)
	InsertMany(ctx context.Context, database, collection string, documents []bson.D) ([]any, error)
	DeleteMany(ctx context.Context, database, collection string, filter bson.D) (int64, error)
}

const defaultFindLimit = 10

/*
NewServer registers the aggregate, find, insert-many and delete-many tools
on an MCP server backed by db.
*/
func NewServer(db Database, version string) *server.MCPServer {
	srv := server.NewMCPServer(
		"atlas-demos",
		version,
		server.WithToolCapabilities(true),
	)

	handlers := &toolHandlers{db: db}

	srv.AddTool(buildAggregateTool(), handlers.aggregate)
	srv.AddTool(buildFindTool(), handlers.find)
	srv.AddTool(buildInsertManyTool(), handlers.insertMany)
	srv.AddTool(buildDeleteManyTool(), handlers.deleteMany)

	return srv
}

func namespaceOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("database",
			mcp.Description("Database name"),
			mcp.Required(),
		),
		mcp.WithString("collection",
			mcp.Description("Collection name"),
			mcp.Required(),
		),
	}
}

func buildAggregateTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Run an aggregation pipeline against a MongoDB collection."),
	}, namespaceOptions()...)

	opts = append(opts, mcp.WithArray("pipeline",
		mcp.Description("Array of aggregation stages, in Extended JSON"),
		mcp.Required(),
	))

	return mcp.NewTool("aggregate", opts...)
}

func buildFindTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Find documents in a MongoDB collection."),
	}, namespaceOptions()...)

	opts = append(opts,
		mcp.WithObject("filter", mcp.Description("Query filter, in Extended JSON")),
		mcp.WithObject("projection", mcp.Description("Projection document")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of documents to return (default 10)")),
	)

	return mcp.NewTool("find", opts...)
}

func buildInsertManyTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Insert documents into a MongoDB collection."),
	}, namespaceOptions()...)

	opts = append(opts, mcp.WithArray("documents",
		mcp.Description("Documents to insert, in Extended JSON"),
		mcp.Required(),
	))

	return mcp.NewTool("insert-many", opts...)
}

func buildDeleteManyTool() mcp.Tool {
	opts := append([]mcp.ToolOption{
		mcp.WithDescription("Delete every document matching a filter. An empty filter deletes all documents."),
	}, namespaceOptions()...)

	opts = append(opts, mcp.WithObject("filter", mcp.Description("Query filter, in Extended JSON")))

	return mcp.NewTool("delete-many", opts...)
}

type toolHandlers struct {
	db Database
}

func namespace(args map[string]any) (string, string, error) {
	database, _ := args["database"].(string)
	collection, _ := args["collection"].(string)

	if database == "" || collection == "" {
		return "", "", fmt.Errorf("database and collection parameters are required")
	}

	return database, collection, nil
}

func (handlers *toolHandlers) aggregate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	database, collection, err := namespace(args)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pipeline, err := ToDocuments(args["pipeline"])

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	docs, err := handlers.db.Aggregate(ctx, database, collection, pipeline)

	if err != nil {
		log.Warn("aggregate failed", "database", database, "collection", collection, "error", err)
		return mcp.NewToolResultError(err.Error()), nil
	}

	return documentsResult(collection, docs)
}

func (handlers *toolHandlers) find(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	database, collection, err := namespace(args)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filter, err := ToDocument(args["filter"])

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	projection, err := ToDocument(args["projection"])

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	limit := int64(defaultFindLimit)

	if value, ok := args["limit"].(float64); ok && value > 0 {
		limit = int64(value)
	}

	docs, err := handlers.db.Find(ctx, database, collection, filter, projection, limit)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return documentsResult(collection, docs)
}

func (handlers *toolHandlers) insertMany(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	database, collection, err := namespace(args)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	documents, err := ToDocuments(args["documents"])

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(documents) == 0 {
		return mcp.NewToolResultError("documents parameter must not be empty"), nil
	}

	ids, err := handlers.db.InsertMany(ctx, database, collection, documents)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	payload, _ := json.Marshal(map[string]any{"insertedIds": hexIDs(ids)})

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Inserted %d document(s) into collection %q.", len(ids), collection)),
			mcp.NewTextContent(string(payload)),
		},
	}, nil
}

func (handlers *toolHandlers) deleteMany(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	database, collection, err := namespace(args)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filter, err := ToDocument(args["filter"])

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	deleted, err := handlers.db.DeleteMany(ctx, database, collection, filter)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	log.Info("documents deleted", "database", database, "collection", collection, "count", deleted)

	return mcp.NewToolResultText(fmt.Sprintf(`{"deletedCount": %d}`, deleted)), nil
}

func documentsResult(collection string, docs []bson.M) (*mcp.CallToolResult, error) {
	payload, err := encodeDocuments(docs)

	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(fmt.Sprintf("Found %d documents in the collection %q.", len(docs), collection)),
			mcp.NewTextContent(payload),
		},
	}, nil
}
