package classify

import (
	"strings"

	"github.com/ritzau/ng-graph/pkg/model"
)

// Builtin is a framework-provided template element, directive or pipe
type Builtin struct {
	Name        string
	PackageName string
}

const (
	corePackage   = "@angular/core"
	commonPackage = "@angular/common"
	routerPackage = "@angular/router"
	formsPackage  = "@angular/forms"
)

// templateBuiltins are elements and directives that need no declaration in the project
var templateBuiltins = map[string]string{
	"ng-content":   corePackage,
	"ng-container": corePackage,
	"ng-template":  corePackage,

	"router-outlet":    routerPackage,
	"routerLink":       routerPackage,
	"routerLinkActive": routerPackage,

	"ngIf":             commonPackage,
	"ngFor":            commonPackage,
	"ngForOf":          commonPackage,
	"ngClass":          commonPackage,
	"ngStyle":          commonPackage,
	"ngSwitch":         commonPackage,
	"ngSwitchCase":     commonPackage,
	"ngSwitchDefault":  commonPackage,
	"ngTemplateOutlet": commonPackage,
	"ngPlural":         commonPackage,
	"ngPluralCase":     commonPackage,

	"ngModel":         formsPackage,
	"ngForm":          formsPackage,
	"formControl":     formsPackage,
	"formControlName": formsPackage,
	"formGroup":       formsPackage,
}

// pipeBuiltins are the pipes shipped with the framework
var pipeBuiltins = map[string]string{
	"async":      commonPackage,
	"date":       commonPackage,
	"json":       commonPackage,
	"uppercase":  commonPackage,
	"lowercase":  commonPackage,
	"titlecase":  commonPackage,
	"currency":   commonPackage,
	"decimal":    commonPackage,
	"number":     commonPackage,
	"percent":    commonPackage,
	"slice":      commonPackage,
	"keyvalue":   commonPackage,
	"i18nPlural": commonPackage,
	"i18nSelect": commonPackage,
}

// LookupBuiltin finds a framework builtin for a template usage.
// Pipe usages only match pipes; other usages match elements and directives.
// An empty usage matches either.
func LookupBuiltin(text string, usage model.Usage) (Builtin, bool) {
	name := builtinName(text)

	if usage != model.UsagePipe {
		if pkg, ok := templateBuiltins[name]; ok {
			return Builtin{Name: name, PackageName: pkg}, true
		}
	}
	if usage == model.UsagePipe || usage == "" {
		if pkg, ok := pipeBuiltins[name]; ok {
			return Builtin{Name: name, PackageName: pkg}, true
		}
	}
	return Builtin{}, false
}

// builtinName strips binding syntax: "[ngClass]" -> "ngClass", "*ngIf" -> "ngIf"
func builtinName(text string) string {
	name := strings.TrimSpace(text)
	name = strings.TrimPrefix(name, "*")
	if strings.HasPrefix(name, "[") && strings.HasSuffix(name, "]") {
		name = name[1 : len(name)-1]
	}
	return strings.TrimSpace(name)
}
