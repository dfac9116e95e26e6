// Package main 启动 assetvault.
package main

import (
	"os"

	"github.com/yeisme/assetvault/pkg/cmd"
)

//	@title						AssetVault API
//	@version					0.1.0
//	@description				AssetVault 管理游戏美术资产的当前文件、修订历史与备份.

//	@license.name				MIT
//	@license.url				https://opensource.org/license/mit/

//	@securityDefinitions.apikey	APIKey
//	@in							header
//	@name						X-API-Key

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
