// =============================================================================
// 📦 测试数据工厂 - 结构化样例
// =============================================================================
package fixtures

import (
	"github.com/BaSui01/composekit/structured"
)

// WidgetJSON 是满足 WidgetSchema 的对象
const WidgetJSON = `{"name":"Widget","price":9,"inStock":true}`

// FencedWidget 是 json 围栏包裹的 WidgetJSON
const FencedWidget = "```json\n" + WidgetJSON + "\n```"

// WidgetSchema 返回 {name: string, price: number, inStock: boolean}
func WidgetSchema() *structured.ObjectDescriptor {
	return structured.Object(
		structured.F("name", structured.String()),
		structured.F("price", structured.Number()),
		structured.F("inStock", structured.Boolean()),
	)
}

// WidgetValue 是 WidgetJSON 解码后的值
func WidgetValue() map[string]any {
	return map[string]any{"name": "Widget", "price": float64(9), "inStock": true}
}

// Fenced 用 json 围栏包裹任意文本
func Fenced(body string) string {
	return "```json\n" + body + "\n```"
}
