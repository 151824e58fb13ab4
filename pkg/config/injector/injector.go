package injector

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/raywall/deta-toolkit/credential"
)

// Regex para capturar padrões ${tipo.chave}
// Ex: ${env.DETA_PROJECT_KEY}, ${ssm./deta/key}, ${secret.deta#project_key}
var pattern = regexp.MustCompile(`\$\{(env|ssm|secret)\.([^}]+)\}`)

// ResolveFunc busca o valor de um placeholder. credential.Resolve é o padrão.
type ResolveFunc func(ctx context.Context, kind, key string) (string, error)

type Injector struct {
	resolve ResolveFunc
}

func New() *Injector {
	return &Injector{resolve: credential.Resolve}
}

// WithResolver troca a fonte dos valores (usado nos testes).
func WithResolver(fn ResolveFunc) *Injector {
	return &Injector{resolve: fn}
}

// Inject substitui os placeholders em todos os campos string de target,
// inclusive dentro de ponteiros, slices e mapas com chave string.
func (i *Injector) Inject(ctx context.Context, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("target deve ser um ponteiro para struct não nulo")
	}
	return i.injectRecursive(ctx, v.Elem())
}

func (i *Injector) injectRecursive(ctx context.Context, v reflect.Value) error {
	switch v.Kind() {
	case reflect.Struct:
		for k := 0; k < v.NumField(); k++ {
			if err := i.injectRecursive(ctx, v.Field(k)); err != nil {
				return fmt.Errorf("%s: %w", v.Type().Field(k).Name, err)
			}
		}

	case reflect.String:
		if !v.CanSet() {
			return nil
		}
		newValue, err := i.interpolateString(ctx, v.String())
		if err != nil {
			return err
		}
		v.SetString(newValue)

	case reflect.Map:
		if v.Type().Key().Kind() == reflect.String && !v.IsNil() {
			return i.injectMap(ctx, v)
		}

	case reflect.Ptr:
		if !v.IsNil() {
			return i.injectRecursive(ctx, v.Elem())
		}

	case reflect.Slice:
		for j := 0; j < v.Len(); j++ {
			if err := i.injectRecursive(ctx, v.Index(j)); err != nil {
				return err
			}
		}
	}
	return nil
}

// interpolateString realiza a substituição baseada em Regex
func (i *Injector) interpolateString(ctx context.Context, input string) (string, error) {
	if !strings.Contains(input, "${") {
		return input, nil
	}

	var err error
	result := pattern.ReplaceAllStringFunc(input, func(match string) string {
		if err != nil {
			return match
		}
		sub := pattern.FindStringSubmatch(match)
		val, resolveErr := i.fetchValue(ctx, sub[1], sub[2])
		if resolveErr != nil {
			err = resolveErr
			return match
		}
		return val
	})

	return result, err
}

// injectMap lida com mapas dinâmicos (map[string]any vindos do YAML)
func (i *Injector) injectMap(ctx context.Context, v reflect.Value) error {
	iter := v.MapRange()
	updates := make(map[string]reflect.Value)

	for iter.Next() {
		elem := iter.Value()
		if elem.Kind() == reflect.Interface {
			elem = elem.Elem()
		}
		if !elem.IsValid() {
			continue
		}

		switch elem.Kind() {
		case reflect.String:
			newVal, err := i.interpolateString(ctx, elem.String())
			if err != nil {
				return err
			}
			updates[iter.Key().String()] = reflect.ValueOf(newVal)
		case reflect.Map:
			if elem.Type().Key().Kind() == reflect.String {
				if err := i.injectMap(ctx, elem); err != nil {
					return err
				}
			}
		}
	}

	for k, val := range updates {
		if !val.Type().AssignableTo(v.Type().Elem()) {
			continue
		}
		v.SetMapIndex(reflect.ValueOf(k).Convert(v.Type().Key()), val)
	}
	return nil
}

// fetchValue centraliza a busca de dados. Variável de ambiente ausente vira
// string vazia; falhas de SSM ou Secrets Manager são erros.
func (i *Injector) fetchValue(ctx context.Context, sourceType, key string) (string, error) {
	val, err := i.resolve(ctx, sourceType, key)
	if err != nil {
		if sourceType == "env" && errors.Is(err, credential.ErrNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("falha ao resolver ${%s.%s}: %w", sourceType, key, err)
	}
	return val, nil
}
