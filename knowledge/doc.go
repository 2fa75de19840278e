// Package knowledge provides the searchable travel knowledge base behind the
// customer-service lookup tools (travel articles, general information and
// currency rates). The in-memory store scores entries by keyword overlap;
// swap it for a web search or vector index behind the same Searcher interface.
package knowledge
