package app

// Command はアプリケーションの起動モードを表す。
type Command string

const (
	// CommandServe はループバックAPIと定期同期を起動することを示す。
	CommandServe Command = "serve"
	// CommandSync は推しとイベントを1回だけ同期して終了することを示す。
	CommandSync Command = "sync"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate Command = "migrate"
	// CommandExport は同期したイベントをiCalendarファイルに書き出すことを示す。
	CommandExport Command = "export"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck Command = "healthcheck"
)

// ParseCommand はコマンドライン引数からサブコマンドを解析する。
// 引数が空またはサポート外のコマンドの場合はCommandServeを返す。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}

	switch Command(args[0]) {
	case CommandServe, CommandSync, CommandMigrate, CommandExport, CommandHealthcheck:
		return Command(args[0])
	default:
		return CommandServe
	}
}

// defaultExportPath はexportコマンドで出力先を省略した場合のファイル名。
const defaultExportPath = "lovendar.ics"

// exportPath はexportコマンドの出力先を返す。
func exportPath(args []string) string {
	if len(args) >= 2 && args[1] != "" {
		return args[1]
	}
	return defaultExportPath
}
