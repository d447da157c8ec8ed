package prompt

import (
	"fmt"
	"sync"

	"github.com/nikolalohinski/gonja"
	"github.com/nikolalohinski/gonja/config"
	"github.com/nikolalohinski/gonja/nodes"
	"github.com/nikolalohinski/gonja/parser"
)

var (
	jinjaEnvOnce sync.Once
	jinjaEnv     *gonja.Environment
	jinjaEnvErr  error
)

// 模板只能渲染自身内容，不允许引用其它模板
var disabledJinjaStatements = []string{"include", "extends", "import", "from"}

// getJinjaEnv 返回共享的 jinja 环境。
func getJinjaEnv() (*gonja.Environment, error) {
	jinjaEnvOnce.Do(func() {
		env := gonja.NewEnvironment(config.DefaultConfig, gonja.DefaultLoader)
		for _, keyword := range disabledJinjaStatements {
			if !env.Statements.Exists(keyword) {
				continue
			}
			keyword := keyword
			err := env.Statements.Replace(keyword, func(_ *parser.Parser, _ *parser.Parser) (nodes.Statement, error) {
				return nil, fmt.Errorf("keyword[%s] has been disabled", keyword)
			})
			if err != nil {
				jinjaEnvErr = fmt.Errorf("init jinja env fail: %w", err)
				return
			}
		}
		jinjaEnv = env
	})
	return jinjaEnv, jinjaEnvErr
}
