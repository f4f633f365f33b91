/*
Command composekit 在命令行上运行 compose、流式扫描与多步 flow。

配置按 默认值 → YAML 文件（--config）→ COMPOSEKIT_* 环境变量 的顺序叠加。
日志写入 stderr，结果写入 stdout。

	composekit compose --provider mock --schema widget.yaml "Describe a widget"
	composekit stream --schema widget.yaml "Describe a widget"
	composekit flow --file flow.yaml --metrics-addr :9091
*/
package main
