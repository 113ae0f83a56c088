package protocol

// Method names used by this runtime, matching the LSP wire method strings
// exactly. Grouped the way akhenakh-lspgo/protocol/methods.go groups them.
const (
	MethodInitialize  Method = "initialize"
	MethodInitialized Method = "initialized"
	MethodShutdown    Method = "shutdown"
	MethodExit        Method = "exit"

	MethodTextDocumentDidOpen   Method = "textDocument/didOpen"
	MethodTextDocumentDidChange Method = "textDocument/didChange"
	MethodTextDocumentDidSave   Method = "textDocument/didSave"
	MethodTextDocumentDidClose  Method = "textDocument/didClose"

	MethodTextDocumentPublishDiagnostics Method = "textDocument/publishDiagnostics"

	MethodTextDocumentCompletion      Method = "textDocument/completion"
	MethodTextDocumentHover           Method = "textDocument/hover"
	MethodTextDocumentDefinition      Method = "textDocument/definition"
	MethodTextDocumentReferences      Method = "textDocument/references"
	MethodTextDocumentRename          Method = "textDocument/rename"
	MethodTextDocumentDocumentSymbol  Method = "textDocument/documentSymbol"
	MethodWorkspaceSymbol             Method = "workspace/symbol"
	MethodTextDocumentCodeAction      Method = "textDocument/codeAction"
	MethodTextDocumentFormatting      Method = "textDocument/formatting"
	MethodWorkspaceDidChangeWatched   Method = "workspace/didChangeWatchedFiles"
	MethodWorkspaceDidChangeConfig    Method = "workspace/didChangeConfiguration"
	MethodWorkspaceConfiguration      Method = "workspace/configuration"
	MethodWorkspaceApplyEdit          Method = "workspace/applyEdit"
	MethodWorkDoneProgressCreate      Method = "window/workDoneProgress/create"
	MethodProgress                    Method = "$/progress"
	MethodWindowShowMessage           Method = "window/showMessage"
	MethodWindowLogMessage            Method = "window/logMessage"
	MethodLogTrace                    Method = "$/logTrace"
	MethodCancelRequest               Method = "$/cancelRequest"
)
