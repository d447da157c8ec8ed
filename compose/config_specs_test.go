package compose

import (
	"errors"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestConfigurableFieldSpecs(t *testing.T) {
	convey.Convey("字段声明生成描述", t, func() {
		convey.Convey("普通字段未指定类型时为 Any", func() {
			s := ConfigurableField{ID: "temperature", Name: "Temperature"}.spec()
			convey.So(s.ID, convey.ShouldEqual, "temperature")
			convey.So(s.Annotation, convey.ShouldEqual, "Any")
			convey.So(s.Name, convey.ShouldEqual, "Temperature")

			s = ConfigurableField{ID: "temperature", Annotation: "float"}.spec()
			convey.So(s.Annotation, convey.ShouldEqual, "float")
		})

		convey.Convey("单选字段以排序后的选项名作为枚举", func() {
			f := ConfigurableFieldSingleOption{
				ID:      "prompt",
				Options: map[string]any{"joke": 1, "fact": 2},
				Default: "fact",
			}
			s := f.spec()
			convey.So(s.Annotation, convey.ShouldEqual, "Enum[fact, joke]")
			convey.So(s.Default, convey.ShouldEqual, "fact")

			v, err := f.resolve("joke")
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldEqual, 1)

			_, err = f.resolve("poem")
			convey.So(errors.Is(err, ErrUnknownOption), convey.ShouldBeTrue)
		})

		convey.Convey("多选字段", func() {
			f := ConfigurableFieldMultiOption{
				ID:      "tools",
				Options: map[string]any{"search": "S", "calc": "C"},
				Default: []string{"search"},
			}
			s := f.spec()
			convey.So(s.Annotation, convey.ShouldEqual, "Sequence[Enum[calc, search]]")
			convey.So(s.Default, convey.ShouldResemble, []string{"search"})

			v, err := f.resolve([]any{"calc", "search"})
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldResemble, []any{"C", "S"})

			v, err = f.resolve("calc")
			convey.So(err, convey.ShouldBeNil)
			convey.So(v, convey.ShouldResemble, []any{"C"})

			_, err = f.resolve([]string{"calc", "shell"})
			convey.So(errors.Is(err, ErrUnknownOption), convey.ShouldBeTrue)

			_, err = f.resolve(42)
			convey.So(errors.Is(err, ErrUnknownOption), convey.ShouldBeTrue)
		})
	})
}

func TestPrefixConfigSpec(t *testing.T) {
	convey.Convey("PrefixConfigSpec", t, func() {
		s := ConfigurableFieldSpec{ID: "k", Annotation: "str"}
		convey.So(PrefixConfigSpec(s, "llm==openai").ID, convey.ShouldEqual, "llm==openai/k")

		s.IsShared = true
		convey.So(PrefixConfigSpec(s, "llm==openai").ID, convey.ShouldEqual, "k")
	})
}

func TestGetUniqueConfigSpecs(t *testing.T) {
	convey.Convey("GetUniqueConfigSpecs", t, func() {
		convey.Convey("相同描述去重并按标识排序", func() {
			specs, err := GetUniqueConfigSpecs([]ConfigurableFieldSpec{
				{ID: "b", Annotation: "int"},
				{ID: "a", Annotation: "str"},
				{ID: "b", Annotation: "int"},
			})
			convey.So(err, convey.ShouldBeNil)
			convey.So(specs, convey.ShouldResemble, []ConfigurableFieldSpec{
				{ID: "a", Annotation: "str"},
				{ID: "b", Annotation: "int"},
			})
		})

		convey.Convey("同一标识的描述不同时报错", func() {
			_, err := GetUniqueConfigSpecs([]ConfigurableFieldSpec{
				{ID: "a", Annotation: "str"},
				{ID: "a", Annotation: "int"},
			})
			convey.So(errors.Is(err, ErrConflictingConfigSpecs), convey.ShouldBeTrue)
		})

		convey.Convey("空输入", func() {
			specs, err := GetUniqueConfigSpecs(nil)
			convey.So(err, convey.ShouldBeNil)
			convey.So(specs, convey.ShouldBeEmpty)
		})
	})
}
